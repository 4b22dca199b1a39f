package httptransport

import (
	"encoding/json"
	"io"
	"net/http"

	"sealedger/internal/attest/models"
	"sealedger/internal/platform/middleware"
	dErrors "sealedger/pkg/domain-errors"
)

func (h *Handler) handleAssignedRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.audit.Assigned(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "assigned records read failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": toAttestedResponses(records)})
}

type disposeRequest struct {
	State string `json:"state"`
}

func (h *Handler) handleDispose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	index, err := recordIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req disposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	state, err := models.ParseAuditState(req.State)
	if err != nil {
		writeError(w, dErrors.Newf(dErrors.CodeBadRequest, "unknown audit state %q", req.State))
		return
	}

	receipt, err := h.audit.Dispose(ctx, index, state)
	if err != nil {
		h.logger.WarnContext(ctx, "disposition failed",
			"request_id", middleware.GetRequestID(ctx),
			"index", index,
			"state", req.State,
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"tx_hash": receipt.TxHash})
}

// handleDispositionStatus reports whether the verdict at index is still
// broadcasting or confirmed by a fresh ledger read.
func (h *Handler) handleDispositionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	index, err := recordIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}

	status, err := h.audit.DispositionStatus(ctx, index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleVerifyDocument accepts raw document bytes and classifies them
// against the committed hashes at index. Advisory; no ledger write happens.
func (h *Handler) handleVerifyDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	index, err := recordIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	doc, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeIO, "read document body"))
		return
	}

	result, err := h.audit.VerifyDocument(ctx, index, doc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
