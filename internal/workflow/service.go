// Package workflow orchestrates the company-side attestation flow on top of
// the pipeline, the scoring collaborator and the ledger gateway: advisory
// scoring after prefill, and the commit sequence that freezes a record on
// the ledger.
package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sealedger/internal/attest/lineseal"
	"sealedger/internal/attest/models"
	"sealedger/internal/credibility"
	"sealedger/internal/events"
	"sealedger/internal/journal"
	"sealedger/internal/ledger"
	"sealedger/internal/permit"
	"sealedger/internal/pipeline"
	"sealedger/internal/platform/metrics"
	dErrors "sealedger/pkg/domain-errors"
)

// listPermitName is the permit name the service signs for its own reads.
// Viewing keys and permit rotation are client concerns; the service issues
// one well-known permit per query.
const listPermitName = "sealedger-records"

// Service drives submissions from upload through commit, acting as the
// owner wallet.
type Service struct {
	pipeline *pipeline.Service
	scorer   credibility.Scorer
	gateway  *ledger.Gateway
	journal  journal.Store
	events   *events.Publisher
	chainID  string
	log      *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(
	p *pipeline.Service,
	scorer credibility.Scorer,
	gateway *ledger.Gateway,
	journalStore journal.Store,
	publisher *events.Publisher,
	chainID string,
	log *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		pipeline: p,
		scorer:   scorer,
		gateway:  gateway,
		journal:  journalStore,
		events:   publisher,
		chainID:  chainID,
		log:      log,
		metrics:  m,
	}
}

// Submit starts the extraction pipeline for a new document.
func (s *Service) Submit(ctx context.Context, sessionID, documentName, contentType string, doc []byte) (pipeline.Snapshot, error) {
	snap, err := s.pipeline.Submit(ctx, sessionID, documentName, contentType, doc)
	if err != nil {
		return pipeline.Snapshot{}, err
	}
	s.events.Emit(ctx, events.Event{
		Action:  events.ActionDocumentSubmitted,
		Subject: snap.ID,
		Detail:  map[string]string{"document": documentName, "session_id": sessionID},
	})
	return snap, nil
}

// Get returns the current pipeline state of a submission.
func (s *Service) Get(_ context.Context, submissionID string) (pipeline.Snapshot, error) {
	return s.pipeline.Get(submissionID)
}

// UpdateRecord applies a user edit to the prefilled fields.
func (s *Service) UpdateRecord(_ context.Context, submissionID string, rec models.ExtractedRecord) (pipeline.Snapshot, error) {
	return s.pipeline.UpdateRecord(submissionID, rec)
}

// AdvisoryScore evaluates the current record for display. The result is not
// binding: the user may keep editing, and the commit path re-scores.
func (s *Service) AdvisoryScore(ctx context.Context, submissionID string) (int, error) {
	snap, err := s.pipeline.Get(submissionID)
	if err != nil {
		return 0, err
	}
	if snap.Superseded {
		return 0, dErrors.New(dErrors.CodeInvalidState, "submission superseded by a newer upload")
	}
	if err := snap.Record.Validate(); err != nil {
		return 0, err
	}

	score, err := s.scorer.Score(ctx, snap.RawText, snap.Record)
	if err != nil {
		return 0, err
	}
	if _, err := s.pipeline.SetAdvisoryScore(submissionID, score); err != nil {
		return 0, err
	}
	return score, nil
}

// Commit freezes the submission on the ledger: fresh binding score, line
// commitment over the final field values, signed write, journal entry.
// The binding score is always recomputed here; the advisory value may be
// stale relative to user edits.
func (s *Service) Commit(ctx context.Context, submissionID string) (ledger.CommitReceipt, int, error) {
	snap, err := s.pipeline.Get(submissionID)
	if err != nil {
		return ledger.CommitReceipt{}, 0, err
	}
	if snap.Superseded {
		return ledger.CommitReceipt{}, 0, dErrors.New(dErrors.CodeInvalidState, "submission superseded by a newer upload")
	}
	if snap.Committed {
		return ledger.CommitReceipt{}, 0, dErrors.New(dErrors.CodeInvalidState, "record already committed")
	}
	if snap.Fingerprint.IsZero() {
		return ledger.CommitReceipt{}, 0, dErrors.New(dErrors.CodeInvalidState, "submission has no document fingerprint")
	}
	if err := snap.Record.Validate(); err != nil {
		return ledger.CommitReceipt{}, 0, err
	}

	score, err := s.scorer.Score(ctx, snap.RawText, snap.Record)
	if err != nil {
		return ledger.CommitReceipt{}, 0, err
	}

	line := lineseal.Seal(snap.Record, snap.Fingerprint)
	receipt, err := s.gateway.Write(ctx, snap.Record, snap.Fingerprint, line, score)
	if err != nil {
		if s.metrics != nil {
			s.metrics.CommitFailures.Inc()
		}
		return ledger.CommitReceipt{}, 0, err
	}

	s.pipeline.MarkCommitted(submissionID, receipt.TxHash)
	if s.metrics != nil {
		s.metrics.RecordsCommitted.Inc()
	}

	entry := journal.Entry{
		ID:           uuid.NewString(),
		SubmissionID: submissionID,
		DocHash:      snap.Fingerprint,
		LineHash:     line,
		Score:        score,
		TxHash:       receipt.TxHash,
		Sender:       s.gateway.Sender(),
		CreatedAt:    time.Now(),
	}
	if err := s.journal.Save(ctx, entry); err != nil {
		// The ledger write already happened; a journal failure must not
		// surface as a failed commit.
		s.log.ErrorContext(ctx, "journal save failed", "tx_hash", receipt.TxHash, "error", err.Error())
	}

	s.events.Emit(ctx, events.Event{
		Action:  events.ActionRecordCommitted,
		Subject: submissionID,
		Actor:   s.gateway.Sender(),
		Detail: map[string]string{
			"tx_hash":  receipt.TxHash,
			"doc_hash": snap.Fingerprint.String(),
		},
	})
	return receipt, score, nil
}

// List reads the caller's attested records from the ledger, authorized by a
// freshly signed query permit scoped to this contract.
func (s *Service) List(ctx context.Context) ([]models.AttestedRecord, error) {
	p, err := permit.Build(ctx, s.gateway.Wallet(), listPermitName, permit.Scope{
		ChainID:          s.chainID,
		AllowedContracts: []string{s.gateway.Contract()},
		Permissions:      []permit.Permission{permit.PermissionOwner},
	})
	if err != nil {
		return nil, err
	}
	s.events.Emit(ctx, events.Event{
		Action:  events.ActionPermitIssued,
		Subject: s.gateway.Contract(),
		Actor:   s.gateway.Sender(),
		Detail:  map[string]string{"permit_name": listPermitName},
	})

	records, err := s.gateway.Read(ctx, p, s.gateway.Sender())
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.LedgerQueries.Inc()
	}
	return records, nil
}
