package httpadapter

import (
	"net/http"
)

func (rt *Router) resendMail(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "candidateId")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req struct {
		MailNumber int `json:"mailNumber"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	event, err := rt.deps.Workflow.ResendMail(r.Context(), id, req.MailNumber)
	rt.recordAction("resend_mail", err)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, event)
}

func (rt *Router) releaseOffer(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "candidateId")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	c, err := rt.deps.Workflow.ReleaseOffer(r.Context(), id)
	rt.recordAction("release_offer", err)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCandidateResponse(*c))
}

func (rt *Router) finalize(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "candidateId")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	c, err := rt.deps.Workflow.Finalize(r.Context(), id)
	rt.recordAction("finalize", err)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCandidateResponse(*c))
}
