// Package auditflow drives the auditor side of the workflow: assignment,
// disposition, and independent document verification against the committed
// hashes. Assignment is an owner-privileged write; dispositions are signed
// by the auditor wallet.
package auditflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sealedger/internal/attest/fingerprint"
	"sealedger/internal/attest/lineseal"
	"sealedger/internal/attest/models"
	"sealedger/internal/events"
	"sealedger/internal/ledger"
	"sealedger/internal/permit"
	"sealedger/internal/platform/metrics"
	platformredis "sealedger/internal/platform/redis"
	dErrors "sealedger/pkg/domain-errors"
)

// auditPermitName names the permit the service signs for state reads.
const auditPermitName = "sealedger-audit"

// dispositionTTL bounds how long a cached disposition is served before the
// ledger is consulted again.
const dispositionTTL = 10 * time.Minute

// Verification classifications. DocumentMismatch means the presented bytes
// are not the attested document; RecordTampered means the bytes match but
// the field values no longer hash to the committed line seal.
const (
	VerifiedMatch    = "verified"
	DocumentMismatch = "document_mismatch"
	RecordTampered   = "record_tampered"
)

// Disposition lifecycle labels. A verdict counts as broadcasting until a
// fresh ledger read shows it applied.
const (
	StatusPending      = "pending"
	StatusBroadcasting = "broadcasting"
	StatusConfirmed    = "confirmed"
)

// DispositionStatus distinguishes a verdict still in flight from one the
// ledger has applied. LedgerState is always a fresh read; BroadcastState is
// the locally cached last verdict and may be ahead of the ledger.
type DispositionStatus struct {
	Status         string            `json:"status"`
	LedgerState    models.AuditState `json:"ledger_state"`
	BroadcastState models.AuditState `json:"broadcast_state,omitempty"`
}

// VerifyResult is advisory: it classifies what a presented document proves
// about a committed record, it does not change ledger state.
type VerifyResult struct {
	Classification string        `json:"classification"`
	Fingerprint    models.Digest `json:"fingerprint"`
}

// Service coordinates both role wallets: owner for assignment and full-state
// reads, auditor for dispositions.
type Service struct {
	owner   *ledger.Gateway
	auditor *ledger.Gateway
	cache   *platformredis.Client
	events  *events.Publisher
	chainID string
	// allowRedisposition permits overwriting a prior disposition. When
	// false, dispositions are terminal and a second write is rejected.
	allowRedisposition bool
	log                *slog.Logger
	metrics            *metrics.Metrics
}

func NewService(
	owner, auditor *ledger.Gateway,
	cache *platformredis.Client,
	publisher *events.Publisher,
	chainID string,
	allowRedisposition bool,
	log *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		owner:              owner,
		auditor:            auditor,
		cache:              cache,
		events:             publisher,
		chainID:            chainID,
		allowRedisposition: allowRedisposition,
		log:                log,
		metrics:            m,
	}
}

// Assign sets the auditor wallet on the record at index. Owner-privileged.
func (s *Service) Assign(ctx context.Context, index uint8, auditorAddr string) (ledger.CommitReceipt, error) {
	receipt, err := s.owner.UpdateAuditor(ctx, index, auditorAddr)
	if err != nil {
		return ledger.CommitReceipt{}, err
	}
	s.events.Emit(ctx, events.Event{
		Action:  events.ActionAuditorAssigned,
		Subject: fmt.Sprintf("%d", index),
		Actor:   s.owner.Sender(),
		Detail:  map[string]string{"auditor": auditorAddr, "tx_hash": receipt.TxHash},
	})
	return receipt, nil
}

// Dispose records the auditor's verdict on the record at index. When
// redisposition is disallowed the current ledger state is read fresh first;
// the cache is never trusted for that decision.
func (s *Service) Dispose(ctx context.Context, index uint8, state models.AuditState) (ledger.CommitReceipt, error) {
	if !state.IsDisposition() {
		return ledger.CommitReceipt{}, dErrors.Newf(dErrors.CodeBadRequest, "%q is not a disposition", state)
	}

	if !s.allowRedisposition {
		rec, err := s.recordAt(ctx, index)
		if err != nil {
			return ledger.CommitReceipt{}, err
		}
		if rec.AuditState.IsDisposition() {
			return ledger.CommitReceipt{}, dErrors.Newf(dErrors.CodeInvalidState,
				"record %d already disposed as %q", index, rec.AuditState)
		}
	}

	receipt, err := s.auditor.SetAuditState(ctx, index, state)
	if err != nil {
		return ledger.CommitReceipt{}, err
	}

	if s.metrics != nil {
		s.metrics.Dispositions.WithLabelValues(string(state)).Inc()
	}
	s.cacheDisposition(ctx, index, state)
	s.events.Emit(ctx, events.Event{
		Action:  events.ActionAuditDisposed,
		Subject: fmt.Sprintf("%d", index),
		Actor:   s.auditor.Sender(),
		Detail:  map[string]string{"state": string(state), "tx_hash": receipt.TxHash},
	})
	return receipt, nil
}

// Assigned lists the records visible to the auditor wallet.
func (s *Service) Assigned(ctx context.Context) ([]models.AttestedRecord, error) {
	p, err := permit.Build(ctx, s.auditor.Wallet(), auditPermitName, permit.Scope{
		ChainID:          s.chainID,
		AllowedContracts: []string{s.auditor.Contract()},
		Permissions:      []permit.Permission{permit.PermissionOwner},
	})
	if err != nil {
		return nil, err
	}
	records, err := s.auditor.Read(ctx, p, s.auditor.Sender())
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.LedgerQueries.Inc()
	}
	return records, nil
}

// VerifyDocument checks presented document bytes against the record at
// index. Advisory only; classification never mutates ledger state.
func (s *Service) VerifyDocument(ctx context.Context, index uint8, doc []byte) (VerifyResult, error) {
	if len(doc) == 0 {
		return VerifyResult{}, dErrors.New(dErrors.CodeBadRequest, "document is empty")
	}
	rec, err := s.recordAt(ctx, index)
	if err != nil {
		return VerifyResult{}, err
	}

	fp := fingerprint.DigestBytes(doc)
	result := VerifyResult{Classification: VerifiedMatch, Fingerprint: fp}
	switch {
	case fp != rec.DocHash:
		result.Classification = DocumentMismatch
	case !lineseal.Verify(rec):
		result.Classification = RecordTampered
	}

	s.events.Emit(ctx, events.Event{
		Action:  events.ActionDocumentVerified,
		Subject: fmt.Sprintf("%d", index),
		Detail:  map[string]string{"classification": result.Classification},
	})
	return result, nil
}

// DispositionStatus reports where the verdict for index stands. Confirmed
// means the ledger shows a disposition; broadcasting means only the local
// cache has one, so the write is still in flight or was lost.
func (s *Service) DispositionStatus(ctx context.Context, index uint8) (DispositionStatus, error) {
	rec, err := s.recordAt(ctx, index)
	if err != nil {
		return DispositionStatus{}, err
	}
	cached, _ := s.CachedDisposition(ctx, index)

	status := DispositionStatus{LedgerState: rec.AuditState, BroadcastState: cached}
	switch {
	case rec.AuditState.IsDisposition():
		status.Status = StatusConfirmed
	case cached != "":
		status.Status = StatusBroadcasting
	default:
		status.Status = StatusPending
	}
	return status, nil
}

// CachedDisposition returns the last disposition broadcast for index, if the
// cache holds one. Empty string means no cached value.
func (s *Service) CachedDisposition(ctx context.Context, index uint8) (models.AuditState, error) {
	if s.cache == nil {
		return "", nil
	}
	val, err := s.cache.Get(ctx, dispositionKey(index)).Result()
	if err != nil {
		return "", nil // cache miss or unavailable, caller falls back to the ledger
	}
	state, err := models.ParseAuditState(val)
	if err != nil {
		return "", nil
	}
	return state, nil
}

// recordAt reads the full ordered record list as the owner and indexes into
// it. Ledger indices are assignment order, which the owner read preserves.
func (s *Service) recordAt(ctx context.Context, index uint8) (models.AttestedRecord, error) {
	p, err := permit.Build(ctx, s.owner.Wallet(), auditPermitName, permit.Scope{
		ChainID:          s.chainID,
		AllowedContracts: []string{s.owner.Contract()},
		Permissions:      []permit.Permission{permit.PermissionOwner},
	})
	if err != nil {
		return models.AttestedRecord{}, err
	}
	records, err := s.owner.Read(ctx, p, s.owner.Sender())
	if err != nil {
		return models.AttestedRecord{}, err
	}
	if int(index) >= len(records) {
		return models.AttestedRecord{}, dErrors.Newf(dErrors.CodeNotFound, "no record at index %d", index)
	}
	return records[index], nil
}

func (s *Service) cacheDisposition(ctx context.Context, index uint8, state models.AuditState) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, dispositionKey(index), string(state), dispositionTTL).Err(); err != nil {
		s.log.WarnContext(ctx, "disposition cache write failed", "index", index, "error", err.Error())
	}
}

func dispositionKey(index uint8) string {
	return fmt.Sprintf("sealedger:disposition:%d", index)
}
