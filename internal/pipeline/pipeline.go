// Package pipeline runs the staged extraction flow for one submitted
// document: fingerprint, then vision text extraction, then field prefill.
// Stages are strictly ordered and individually observable; a stage failure
// leaves earlier results usable and never aborts the submission. The
// original product wired these as nested completion callbacks; here each
// submission is an explicit sequence with a named current stage.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"sealedger/internal/attest/fingerprint"
	"sealedger/internal/attest/models"
	"sealedger/internal/platform/metrics"
	dErrors "sealedger/pkg/domain-errors"
	"sealedger/pkg/platform/sentinel"
)

// Stage labels, surfaced verbatim as progress statuses.
type Stage string

const (
	StageFingerprint Stage = "fingerprinting"
	StageExtract     Stage = "extracting"
	StagePrefill     Stage = "prefilling"
)

var stageOrder = []Stage{StageFingerprint, StageExtract, StagePrefill}

// StageState tracks one stage's lifecycle.
type StageState string

const (
	StagePending StageState = "pending"
	StageRunning StageState = "running"
	StageOK      StageState = "ok"
	StageFailed  StageState = "failed"
)

// StageStatus is the observable terminal/in-progress state of a stage.
type StageStatus struct {
	State StageState `json:"state"`
	Error string     `json:"error,omitempty"`
}

// TextExtractor is the vision/OCR collaborator boundary.
type TextExtractor interface {
	ExtractText(ctx context.Context, doc []byte, contentType string) (string, error)
}

// FieldExtractor is the field-extraction collaborator boundary.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string) (models.ExtractedRecord, error)
}

// Snapshot is an immutable copy of a submission's state, safe to hand to
// transports while the pipeline keeps running.
type Snapshot struct {
	ID            string
	SessionID     string
	DocumentName  string
	Stage         Stage
	Stages        map[Stage]StageStatus
	Done          bool
	Superseded    bool
	Fingerprint   models.Digest
	RawText       string
	Record        models.ExtractedRecord
	AdvisoryScore *int
	Committed     bool
	TxHash        string
	CreatedAt     time.Time
}

type submission struct {
	id           string
	sessionID    string
	generation   uint64
	documentName string
	contentType  string

	stage         Stage
	stages        map[Stage]StageStatus
	done          bool
	fingerprint   models.Digest
	rawText       string
	record        models.ExtractedRecord
	advisoryScore *int
	committed     bool
	txHash        string
	createdAt     time.Time
}

// Service owns submissions and their supersession bookkeeping. One logical
// workflow per session: a new upload for the same session supersedes the
// in-flight one, and late collaborator results from a superseded run are
// discarded rather than overwriting newer state.
type Service struct {
	mu     sync.Mutex
	subs   map[string]*submission
	latest map[string]string // session id -> latest submission id
	gens   map[string]uint64 // session id -> generation counter

	ocr     TextExtractor
	fields  FieldExtractor
	log     *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	// wg lets tests wait for background stage runs to settle.
	wg sync.WaitGroup
}

func NewService(ocr TextExtractor, fields FieldExtractor, log *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		subs:    make(map[string]*submission),
		latest:  make(map[string]string),
		gens:    make(map[string]uint64),
		ocr:     ocr,
		fields:  fields,
		log:     log,
		metrics: m,
		tracer:  otel.Tracer("sealedger/pipeline"),
	}
}

// Submit registers a new submission for the session and starts the staged
// run in the background. The raw document bytes live only for the duration
// of the run; once fingerprinted and extracted they are gone.
func (s *Service) Submit(ctx context.Context, sessionID, documentName, contentType string, doc []byte) (Snapshot, error) {
	if sessionID == "" {
		return Snapshot{}, dErrors.New(dErrors.CodeBadRequest, "session id must not be empty")
	}
	if len(doc) == 0 {
		return Snapshot{}, dErrors.New(dErrors.CodeIO, "document is empty")
	}

	sub := &submission{
		id:           uuid.NewString(),
		sessionID:    sessionID,
		documentName: documentName,
		contentType:  contentType,
		stage:        StageFingerprint,
		stages: map[Stage]StageStatus{
			StageFingerprint: {State: StagePending},
			StageExtract:     {State: StagePending},
			StagePrefill:     {State: StagePending},
		},
		createdAt: time.Now(),
	}

	s.mu.Lock()
	s.gens[sessionID]++
	sub.generation = s.gens[sessionID]
	s.subs[sub.id] = sub
	s.latest[sessionID] = sub.id
	snap := snapshotLocked(sub, true)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SubmissionsStarted.Inc()
	}
	s.log.InfoContext(ctx, "submission started",
		"submission_id", sub.id,
		"session_id", sessionID,
		"document", documentName,
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// The upload request may return before the pipeline finishes;
		// detach from its cancellation but keep its values.
		s.run(context.WithoutCancel(ctx), sub.id, doc)
	}()

	return snap, nil
}

// run executes the stages in order. Every write back into shared state goes
// through a generation check so a superseded run can finish quietly without
// clobbering its successor.
func (s *Service) run(ctx context.Context, subID string, doc []byte) {
	ctx, span := s.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	// Stage 1: fingerprint. Pure; the only failure mode for in-memory
	// bytes is an empty buffer, rejected at Submit.
	s.startStage(subID, StageFingerprint)
	start := time.Now()
	fp := fingerprint.DigestBytes(doc)
	s.metrics.ObserveStage(string(StageFingerprint), time.Since(start), false)
	if !s.finishStage(subID, StageFingerprint, func(sub *submission) {
		sub.fingerprint = fp
	}, nil) {
		return
	}

	// Stage 2: vision text extraction.
	s.startStage(subID, StageExtract)
	start = time.Now()
	var rawText string
	text, err := s.extractText(ctx, subID, doc)
	s.metrics.ObserveStage(string(StageExtract), time.Since(start), err != nil)
	if err == nil {
		rawText = text
	}
	if !s.finishStage(subID, StageExtract, func(sub *submission) {
		sub.rawText = rawText
	}, err) {
		return
	}

	// Stage 3: field prefill. Requires stage 2 text; without it the stage
	// fails but the submission stays editable by hand.
	s.startStage(subID, StagePrefill)
	start = time.Now()
	var rec models.ExtractedRecord
	var prefillErr error
	if rawText == "" {
		prefillErr = dErrors.New(dErrors.CodeExtraction, "no extracted text to prefill from")
	} else {
		rec, prefillErr = s.extractFields(ctx, subID, rawText)
	}
	s.metrics.ObserveStage(string(StagePrefill), time.Since(start), prefillErr != nil)
	s.finishStage(subID, StagePrefill, func(sub *submission) {
		sub.record = rec
		sub.done = true
	}, prefillErr)
}

func (s *Service) extractText(ctx context.Context, subID string, doc []byte) (string, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.extract_text")
	defer span.End()

	s.mu.Lock()
	contentType := s.subs[subID].contentType
	s.mu.Unlock()

	text, err := s.ocr.ExtractText(ctx, doc, contentType)
	if err != nil {
		s.log.WarnContext(ctx, "text extraction failed", "submission_id", subID, "error", err.Error())
		return "", err
	}
	return text, nil
}

func (s *Service) extractFields(ctx context.Context, subID, rawText string) (models.ExtractedRecord, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.extract_fields")
	defer span.End()

	rec, err := s.fields.ExtractFields(ctx, rawText)
	if err != nil {
		s.log.WarnContext(ctx, "field prefill failed", "submission_id", subID, "error", err.Error())
		return models.ExtractedRecord{}, err
	}
	return rec, nil
}

func (s *Service) startStage(subID string, stage Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[subID]
	if !ok || s.latest[sub.sessionID] != subID {
		return
	}
	sub.stage = stage
	sub.stages[stage] = StageStatus{State: StageRunning}
}

// finishStage applies the stage result unless the submission was superseded.
// Returns false when the run should stop entirely (submission gone or
// superseded).
func (s *Service) finishStage(subID string, stage Stage, apply func(*submission), stageErr error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[subID]
	if !ok {
		return false
	}
	if s.latest[sub.sessionID] != subID {
		// A newer upload superseded this run; let it finish silently and
		// discard the result.
		sub.done = true
		return false
	}
	if stageErr != nil {
		sub.stages[stage] = StageStatus{State: StageFailed, Error: stageErr.Error()}
	} else {
		sub.stages[stage] = StageStatus{State: StageOK}
	}
	apply(sub)
	return true
}

// Get returns a snapshot of the submission.
func (s *Service) Get(id string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return Snapshot{}, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "unknown submission")
	}
	return snapshotLocked(sub, s.latest[sub.sessionID] == id), nil
}

// UpdateRecord applies a user edit to the extracted fields before commit.
func (s *Service) UpdateRecord(id string, rec models.ExtractedRecord) (Snapshot, error) {
	if err := rec.Validate(); err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return Snapshot{}, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "unknown submission")
	}
	if s.latest[sub.sessionID] != id {
		return Snapshot{}, dErrors.Wrap(sentinel.ErrSuperseded, dErrors.CodeInvalidState, "submission superseded by a newer upload")
	}
	if sub.committed {
		return Snapshot{}, dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeInvalidState, "record already committed")
	}
	sub.record = rec
	return snapshotLocked(sub, true), nil
}

// SetAdvisoryScore stores the pre-commit advisory credibility value. It is
// display state only; the binding score is recomputed at commit.
func (s *Service) SetAdvisoryScore(id string, score int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok {
		return Snapshot{}, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "unknown submission")
	}
	if s.latest[sub.sessionID] != id {
		return Snapshot{}, dErrors.Wrap(sentinel.ErrSuperseded, dErrors.CodeInvalidState, "submission superseded by a newer upload")
	}
	sub.advisoryScore = &score
	return snapshotLocked(sub, true), nil
}

// MarkCommitted records the ledger receipt against the submission.
func (s *Service) MarkCommitted(id, txHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[id]; ok {
		sub.committed = true
		sub.txHash = txHash
	}
}

// Wait blocks until all in-flight stage runs settle. Test helper.
func (s *Service) Wait() { s.wg.Wait() }

func snapshotLocked(sub *submission, isLatest bool) Snapshot {
	stages := make(map[Stage]StageStatus, len(sub.stages))
	for k, v := range sub.stages {
		stages[k] = v
	}
	var advisory *int
	if sub.advisoryScore != nil {
		v := *sub.advisoryScore
		advisory = &v
	}
	return Snapshot{
		ID:            sub.id,
		SessionID:     sub.sessionID,
		DocumentName:  sub.documentName,
		Stage:         sub.stage,
		Stages:        stages,
		Done:          sub.done,
		Superseded:    !isLatest,
		Fingerprint:   sub.fingerprint,
		RawText:       sub.rawText,
		Record:        sub.record,
		AdvisoryScore: advisory,
		Committed:     sub.committed,
		TxHash:        sub.txHash,
		CreatedAt:     sub.createdAt,
	}
}
