package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/hr-onboarding/internal/config"
	"github.com/kirillkom/hr-onboarding/internal/core/ports"
	"github.com/kirillkom/hr-onboarding/internal/infrastructure/resilience"
	"github.com/kirillkom/hr-onboarding/internal/observability/metrics"
)

const serviceName = "api"

// BreakerReporter exposes circuit breaker state on /healthz.
type BreakerReporter interface {
	BreakerStates() []resilience.BreakerState
}

type Dependencies struct {
	Candidates   ports.CandidateService
	Verification ports.VerificationService
	Workflow     ports.WorkflowService
	Roster       ports.RosterExporter
	Metrics      *metrics.HTTPServerMetrics
	Breakers     BreakerReporter
}

type Router struct {
	cfg       config.Config
	deps      Dependencies
	validator *requestValidator
}

func NewRouter(cfg config.Config, deps Dependencies) *Router {
	validator, err := newRequestValidator()
	if err != nil {
		// The document is embedded; a load failure is a build defect.
		panic(err)
	}
	return &Router{cfg: cfg, deps: deps, validator: validator}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.deps.Metrics != nil {
		mux.Handle("GET /metrics", rt.deps.Metrics.Handler())
	}

	rt.handle(mux, "GET /v1/catalog", rt.getCatalog)
	rt.handle(mux, "GET /v1/candidates", rt.listCandidates)
	rt.handle(mux, "POST /v1/candidates", rt.createCandidate)
	rt.handle(mux, "GET /v1/candidates/{candidateId}", rt.getCandidate)
	rt.handle(mux, "PUT /v1/candidates/{candidateId}/status", rt.overrideStatus)
	rt.handle(mux, "PUT /v1/candidates/{candidateId}/reminders", rt.updateReminders)
	rt.handle(mux, "GET /v1/candidates/{candidateId}/documents", rt.getDocuments)
	rt.handle(mux, "POST /v1/candidates/{candidateId}/documents/sync", rt.syncDocuments)
	rt.handle(mux, "PATCH /v1/candidates/{candidateId}/documents/{documentKey}", rt.toggleDocument)
	rt.handle(mux, "POST /v1/candidates/{candidateId}/mail", rt.resendMail)
	rt.handle(mux, "POST /v1/candidates/{candidateId}/offer", rt.releaseOffer)
	rt.handle(mux, "POST /v1/candidates/{candidateId}/finalize", rt.finalize)
	rt.handle(mux, "GET /v1/folders/{folderId}/files", rt.listFolderFiles)
	rt.handle(mux, "GET /v1/exports/candidates.xlsx", rt.exportRoster)

	var handler http.Handler = mux
	if rt.deps.Metrics != nil {
		handler = rt.deps.Metrics.Middleware(serviceName, handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, rt.validator.wrap(pattern, h))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{"status": "ok"}
	if rt.deps.Breakers != nil {
		if states := rt.deps.Breakers.BreakerStates(); len(states) > 0 {
			payload["breakers"] = states
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func decodeJSON(r *http.Request, dest any) error {
	return json.NewDecoder(r.Body).Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("http_handler_error",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}
