package httptransport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"sealedger/internal/attest/models"
	"sealedger/internal/pipeline"
	"sealedger/internal/platform/middleware"
	dErrors "sealedger/pkg/domain-errors"
)

// maxUploadBytes bounds document uploads. Larger documents should be
// rejected at the edge anyway; this is the in-process backstop.
const maxUploadBytes = 20 << 20

// submissionResponse is the transport projection of a pipeline snapshot.
// Raw text is included so the client can show the extraction; document bytes
// never come back.
type submissionResponse struct {
	ID            string                                 `json:"id"`
	DocumentName  string                                 `json:"document_name"`
	Stage         pipeline.Stage                         `json:"stage"`
	Stages        map[pipeline.Stage]pipeline.StageStatus `json:"stages"`
	Done          bool                                   `json:"done"`
	Superseded    bool                                   `json:"superseded"`
	Fingerprint   string                                 `json:"fingerprint,omitempty"`
	RawText       string                                 `json:"raw_text,omitempty"`
	Record        models.ExtractedRecord                 `json:"record"`
	AdvisoryScore *int                                   `json:"advisory_score,omitempty"`
	Committed     bool                                   `json:"committed"`
	TxHash        string                                 `json:"tx_hash,omitempty"`
}

func toSubmissionResponse(s pipeline.Snapshot) submissionResponse {
	return submissionResponse{
		ID:            s.ID,
		DocumentName:  s.DocumentName,
		Stage:         s.Stage,
		Stages:        s.Stages,
		Done:          s.Done,
		Superseded:    s.Superseded,
		Fingerprint:   s.Fingerprint.String(),
		RawText:       s.RawText,
		Record:        s.Record,
		AdvisoryScore: s.AdvisoryScore,
		Committed:     s.Committed,
		TxHash:        s.TxHash,
	}
}

// handleSubmit accepts a multipart upload with a "document" part and starts
// the extraction pipeline. The authenticated subject is the workflow
// session: a second upload by the same subject supersedes the first.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "expected multipart form with a document part"))
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "missing document part"))
		return
	}
	defer file.Close()

	doc, err := io.ReadAll(file)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeIO, "read uploaded document"))
		return
	}

	sessionID := middleware.GetSubject(ctx)
	snap, err := h.workflow.Submit(ctx, sessionID, header.Filename, header.Header.Get("Content-Type"), doc)
	if err != nil {
		h.logger.WarnContext(ctx, "submission rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toSubmissionResponse(snap))
}

func (h *Handler) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := submissionID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := h.workflow.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionResponse(snap))
}

func (h *Handler) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := submissionID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var rec models.ExtractedRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	snap, err := h.workflow.UpdateRecord(ctx, id, rec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmissionResponse(snap))
}

func (h *Handler) handleAdvisoryScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := submissionID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	score, err := h.workflow.AdvisoryScore(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "advisory scoring failed",
			"request_id", middleware.GetRequestID(ctx),
			"submission_id", id,
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"credibility": score})
}

func (h *Handler) handleCommit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := submissionID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	receipt, score, err := h.workflow.Commit(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "commit failed",
			"request_id", middleware.GetRequestID(ctx),
			"submission_id", id,
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tx_hash":     receipt.TxHash,
		"credibility": score,
	})
}

func submissionID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if !govalidator.IsUUID(id) {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid submission id")
	}
	return id, nil
}
