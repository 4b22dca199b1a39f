package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedger/internal/attest/fingerprint"
	"sealedger/internal/attest/models"
	dErrors "sealedger/pkg/domain-errors"
	"sealedger/pkg/platform/sentinel"
)

type stubOCR struct {
	mu      sync.Mutex
	text    string
	err     error
	gate    chan struct{} // when set, ExtractText blocks until closed
	started chan struct{} // closed when the first call arrives
	once    sync.Once
	calls   int
}

func (s *stubOCR) ExtractText(ctx context.Context, _ []byte, _ string) (string, error) {
	s.mu.Lock()
	s.calls++
	gate := s.gate
	s.mu.Unlock()
	if s.started != nil {
		s.once.Do(func() { close(s.started) })
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

type stubFields struct {
	rec models.ExtractedRecord
	err error
}

func (s *stubFields) ExtractFields(context.Context, string) (models.ExtractedRecord, error) {
	return s.rec, s.err
}

func prefilled() models.ExtractedRecord {
	return models.ExtractedRecord{
		InvoiceNumber: "INV-9", Date: "2024-05-01", ClientName: "Acme",
		Description: "Services", TotalAmount: "500", TaxAmount: "95", Currency: "EUR",
	}
}

func newTestService(ocr TextExtractor, fields FieldExtractor) *Service {
	return NewService(ocr, fields, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func TestSubmit_RunsAllStages(t *testing.T) {
	svc := newTestService(
		&stubOCR{text: "raw invoice text"},
		&stubFields{rec: prefilled()},
	)

	snap, err := svc.Submit(context.Background(), "sess-1", "invoice.pdf", "application/pdf", []byte("doc bytes"))
	require.NoError(t, err)
	assert.Equal(t, StageFingerprint, snap.Stage)
	svc.Wait()

	got, err := svc.Get(snap.ID)
	require.NoError(t, err)
	assert.True(t, got.Done)
	assert.False(t, got.Superseded)
	assert.Equal(t, fingerprint.DigestBytes([]byte("doc bytes")), got.Fingerprint)
	assert.Equal(t, "raw invoice text", got.RawText)
	assert.Equal(t, prefilled(), got.Record)
	for _, stage := range []Stage{StageFingerprint, StageExtract, StagePrefill} {
		assert.Equal(t, StageOK, got.Stages[stage].State, stage)
	}
}

func TestSubmit_Validation(t *testing.T) {
	svc := newTestService(&stubOCR{}, &stubFields{})

	_, err := svc.Submit(context.Background(), "", "a.pdf", "application/pdf", []byte("x"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = svc.Submit(context.Background(), "sess", "a.pdf", "application/pdf", nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeIO))
}

func TestSubmit_ExtractionFailureLeavesFingerprintUsable(t *testing.T) {
	svc := newTestService(
		&stubOCR{err: dErrors.New(dErrors.CodeExtraction, "vision unavailable")},
		&stubFields{rec: prefilled()},
	)

	snap, err := svc.Submit(context.Background(), "sess-1", "a.pdf", "application/pdf", []byte("doc"))
	require.NoError(t, err)
	svc.Wait()

	got, err := svc.Get(snap.ID)
	require.NoError(t, err)
	assert.True(t, got.Done)
	assert.Equal(t, StageOK, got.Stages[StageFingerprint].State)
	assert.Equal(t, StageFailed, got.Stages[StageExtract].State)
	assert.Equal(t, StageFailed, got.Stages[StagePrefill].State)
	assert.False(t, got.Fingerprint.IsZero())
	assert.Empty(t, got.RawText)

	// The record stays editable by hand despite the failed prefill.
	_, err = svc.UpdateRecord(snap.ID, prefilled())
	assert.NoError(t, err)
}

func TestSubmit_PrefillFailureKeepsRawText(t *testing.T) {
	svc := newTestService(
		&stubOCR{text: "raw text"},
		&stubFields{err: dErrors.New(dErrors.CodeExtraction, "fields unavailable")},
	)

	snap, err := svc.Submit(context.Background(), "sess-1", "a.pdf", "application/pdf", []byte("doc"))
	require.NoError(t, err)
	svc.Wait()

	got, err := svc.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, StageOK, got.Stages[StageExtract].State)
	assert.Equal(t, StageFailed, got.Stages[StagePrefill].State)
	assert.Equal(t, "raw text", got.RawText)
}

func TestSubmit_SupersededRunDiscardsResults(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{})
	ocr := &stubOCR{text: "slow result", gate: gate, started: started}
	svc := newTestService(ocr, &stubFields{rec: prefilled()})

	first, err := svc.Submit(context.Background(), "sess-1", "v1.pdf", "application/pdf", []byte("doc v1"))
	require.NoError(t, err)
	<-started

	// Second upload for the same session supersedes the first while its
	// extraction is still in flight.
	ocr.mu.Lock()
	ocr.gate = nil
	ocr.mu.Unlock()
	second, err := svc.Submit(context.Background(), "sess-1", "v2.pdf", "application/pdf", []byte("doc v2"))
	require.NoError(t, err)

	close(gate)
	svc.Wait()

	old, err := svc.Get(first.ID)
	require.NoError(t, err)
	assert.True(t, old.Superseded)
	// The slow extraction completed but its result was discarded.
	assert.Empty(t, old.RawText)

	current, err := svc.Get(second.ID)
	require.NoError(t, err)
	assert.False(t, current.Superseded)
	assert.Equal(t, "slow result", current.RawText)
}

func TestUpdateRecord_RejectsSupersededAndCommitted(t *testing.T) {
	svc := newTestService(&stubOCR{text: "t"}, &stubFields{rec: prefilled()})

	first, err := svc.Submit(context.Background(), "sess-1", "a.pdf", "application/pdf", []byte("v1"))
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), "sess-1", "b.pdf", "application/pdf", []byte("v2"))
	require.NoError(t, err)
	svc.Wait()

	_, err = svc.UpdateRecord(first.ID, prefilled())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	assert.ErrorIs(t, err, sentinel.ErrSuperseded)
}

func TestUpdateRecord_RejectsAfterCommit(t *testing.T) {
	svc := newTestService(&stubOCR{text: "t"}, &stubFields{rec: prefilled()})

	snap, err := svc.Submit(context.Background(), "sess-1", "a.pdf", "application/pdf", []byte("doc"))
	require.NoError(t, err)
	svc.Wait()

	svc.MarkCommitted(snap.ID, "txhash")
	_, err = svc.UpdateRecord(snap.ID, prefilled())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestUpdateRecord_Validates(t *testing.T) {
	svc := newTestService(&stubOCR{text: "t"}, &stubFields{rec: prefilled()})
	snap, err := svc.Submit(context.Background(), "sess-1", "a.pdf", "application/pdf", []byte("doc"))
	require.NoError(t, err)
	svc.Wait()

	bad := prefilled()
	bad.TotalAmount = "-1"
	_, err = svc.UpdateRecord(snap.ID, bad)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestGet_UnknownSubmission(t *testing.T) {
	svc := newTestService(&stubOCR{}, &stubFields{})
	_, err := svc.Get("missing")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestSetAdvisoryScore(t *testing.T) {
	svc := newTestService(&stubOCR{text: "t"}, &stubFields{rec: prefilled()})
	snap, err := svc.Submit(context.Background(), "sess-1", "a.pdf", "application/pdf", []byte("doc"))
	require.NoError(t, err)
	svc.Wait()

	got, err := svc.SetAdvisoryScore(snap.ID, 91)
	require.NoError(t, err)
	require.NotNil(t, got.AdvisoryScore)
	assert.Equal(t, 91, *got.AdvisoryScore)
}
