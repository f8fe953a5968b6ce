package httpadapter

import (
	"net/http"
	"strings"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
)

type candidateResponse struct {
	domain.Candidate
	BadgeClass string `json:"badgeClass"`
	StatusSlug string `json:"statusSlug"`
}

func toCandidateResponse(c domain.Candidate) candidateResponse {
	return candidateResponse{
		Candidate:  c,
		BadgeClass: c.Status.BadgeClass(),
		StatusSlug: c.Status.Slug(),
	}
}

func (rt *Router) getCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"requirements": rt.deps.Verification.Catalog(),
		"stages":       domain.KnownStages(),
	})
}

func (rt *Router) listCandidates(w http.ResponseWriter, r *http.Request) {
	statusFilter, err := queryParam(r, "status")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var stage domain.CandidateStatus
	if strings.TrimSpace(statusFilter) != "" {
		parsed, ok := domain.ParseCandidateStatus(statusFilter)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown status filter")
			return
		}
		stage = parsed
	}

	items, err := rt.deps.Candidates.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]candidateResponse, 0, len(items))
	for _, c := range items {
		if stage != "" && c.Status != stage {
			continue
		}
		out = append(out, toCandidateResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": out})
}

func (rt *Router) createCandidate(w http.ResponseWriter, r *http.Request) {
	var in domain.NewCandidateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c, err := rt.deps.Candidates.Create(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCandidateResponse(*c))
}

func (rt *Router) getCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "candidateId")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	c, err := rt.deps.Candidates.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCandidateResponse(*c))
}

func (rt *Router) overrideStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "candidateId")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c, err := rt.deps.Candidates.OverrideStatus(r.Context(), id, domain.CandidateStatus(req.Status))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCandidateResponse(*c))
}

func (rt *Router) updateReminders(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "candidateId")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req struct {
		Reminders []domain.ReminderRule `json:"reminders"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c, err := rt.deps.Candidates.UpdateReminders(r.Context(), id, req.Reminders)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCandidateResponse(*c))
}
