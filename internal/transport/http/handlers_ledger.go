package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/asaskevich/govalidator"

	"sealedger/internal/attest/models"
	"sealedger/internal/platform/middleware"
	dErrors "sealedger/pkg/domain-errors"
)

// attestedResponse is the transport projection of a ledger record.
type attestedResponse struct {
	Index       int                    `json:"index"`
	Record      models.ExtractedRecord `json:"record"`
	DocHash     string                 `json:"doc_hash"`
	LineHash    string                 `json:"line_hash"`
	Credibility string                 `json:"credibility"`
	Auditor     string                 `json:"auditor,omitempty"`
	AuditState  models.AuditState      `json:"audit_state"`
}

func toAttestedResponses(records []models.AttestedRecord) []attestedResponse {
	out := make([]attestedResponse, 0, len(records))
	for i, rec := range records {
		out = append(out, attestedResponse{
			Index:       i,
			Record:      rec.Record(),
			DocHash:     rec.DocHash.String(),
			LineHash:    rec.LineHash.String(),
			Credibility: rec.Credibility,
			Auditor:     rec.Auditors,
			AuditState:  rec.AuditState,
		})
	}
	return out
}

// handleListRecords reads the company's attested records under a fresh
// query permit.
func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.workflow.List(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "ledger read failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": toAttestedResponses(records)})
}

type assignAuditorRequest struct {
	Auditor string `json:"auditor"`
}

func (h *Handler) handleAssignAuditor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	index, err := recordIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req assignAuditorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if !govalidator.StringLength(req.Auditor, "1", "90") {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid auditor address"))
		return
	}

	receipt, err := h.audit.Assign(ctx, index, req.Auditor)
	if err != nil {
		h.logger.ErrorContext(ctx, "auditor assignment failed",
			"request_id", middleware.GetRequestID(ctx),
			"index", index,
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"tx_hash": receipt.TxHash})
}
