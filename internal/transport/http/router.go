// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services without embedding business logic so transport concerns remain
// isolated. Routes are split into a company group (submission and commit)
// and an auditor group (disposition and verification), each behind its own
// role check.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sealedger/internal/attest/models"
	"sealedger/internal/auditflow"
	"sealedger/internal/ledger"
	"sealedger/internal/pipeline"
	"sealedger/internal/platform/metrics"
	"sealedger/internal/platform/middleware"
)

const requestTimeout = 90 * time.Second

// WorkflowService is the company-side surface the transport depends on.
type WorkflowService interface {
	Submit(ctx context.Context, sessionID, documentName, contentType string, doc []byte) (pipeline.Snapshot, error)
	Get(ctx context.Context, submissionID string) (pipeline.Snapshot, error)
	UpdateRecord(ctx context.Context, submissionID string, rec models.ExtractedRecord) (pipeline.Snapshot, error)
	AdvisoryScore(ctx context.Context, submissionID string) (int, error)
	Commit(ctx context.Context, submissionID string) (ledger.CommitReceipt, int, error)
	List(ctx context.Context) ([]models.AttestedRecord, error)
}

// AuditService is the auditor-side surface.
type AuditService interface {
	Assign(ctx context.Context, index uint8, auditorAddr string) (ledger.CommitReceipt, error)
	Dispose(ctx context.Context, index uint8, state models.AuditState) (ledger.CommitReceipt, error)
	Assigned(ctx context.Context) ([]models.AttestedRecord, error)
	VerifyDocument(ctx context.Context, index uint8, doc []byte) (auditflow.VerifyResult, error)
	DispositionStatus(ctx context.Context, index uint8) (auditflow.DispositionStatus, error)
}

// HealthChecker reports readiness of an optional dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler wires services into routes.
type Handler struct {
	workflow  WorkflowService
	audit     AuditService
	validator middleware.JWTValidator
	health    map[string]HealthChecker
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewHandler(
	wf WorkflowService,
	audit AuditService,
	validator middleware.JWTValidator,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		workflow:  wf,
		audit:     audit,
		validator: validator,
		health:    make(map[string]HealthChecker),
		logger:    logger,
		metrics:   m,
	}
}

// AddHealthCheck registers a named dependency for the health endpoint.
// A nil checker is ignored so optional dependencies can be passed through.
func (h *Handler) AddHealthCheck(name string, hc HealthChecker) {
	if hc == nil {
		return
	}
	h.health[name] = hc
}

// NewRouter builds the full route tree.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.LatencyMiddleware(h.metrics))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Company routes. The upload endpoint takes multipart bodies, so the
	// JSON content-type check applies only to the rest of the group.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(middleware.RequireRole(h.validator, middleware.RoleCompany, h.logger))
		r.Post("/submissions", h.handleSubmit)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			r.Get("/submissions/{id}", h.handleGetSubmission)
			r.Put("/submissions/{id}/record", h.handleUpdateRecord)
			r.Post("/submissions/{id}/score", h.handleAdvisoryScore)
			r.Post("/submissions/{id}/commit", h.handleCommit)
			r.Get("/ledger/records", h.handleListRecords)
			r.Post("/ledger/records/{index}/auditor", h.handleAssignAuditor)
		})
	})

	// Auditor routes. Verification takes raw document bytes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(middleware.RequireRole(h.validator, middleware.RoleAuditor, h.logger))
		r.Get("/ledger/assigned", h.handleAssignedRecords)
		r.Get("/ledger/records/{index}/disposition", h.handleDispositionStatus)
		r.Post("/ledger/records/{index}/verify", h.handleVerifyDocument)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			r.Post("/ledger/records/{index}/disposition", h.handleDispose)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := http.StatusOK
	body := map[string]string{"status": "ok"}
	for name, hc := range h.health {
		if err := hc.Health(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body[name] = err.Error()
		}
	}
	writeJSON(w, status, body)
}
