package httpadapter

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
	"github.com/kirillkom/hr-onboarding/internal/core/ports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type resolvedDocumentResponse struct {
	domain.ResolvedDocument
	BadgeClass string `json:"badgeClass"`
}

type documentViewResponse struct {
	CandidateID string                     `json:"candidateId"`
	Stage       domain.CandidateStatus     `json:"stage"`
	Documents   []resolvedDocumentResponse `json:"documents"`
	Counts      map[string]int             `json:"counts"`
	DocStatus   domain.StatusMap           `json:"docStatus"`
	Files       []domain.RemoteFile        `json:"files"`
	Degraded    bool                       `json:"degraded"`
}

func (rt *Router) toDocumentViewResponse(view *ports.DocumentView) documentViewResponse {
	docs := make([]resolvedDocumentResponse, 0, len(view.Documents))
	for _, doc := range view.Documents {
		docs = append(docs, resolvedDocumentResponse{ResolvedDocument: doc, BadgeClass: doc.Label.BadgeClass()})
	}
	counts := make(map[string]int, 4)
	for label, n := range view.Documents.Counts() {
		counts[string(label)] = n
	}
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordResolution(serviceName, counts)
	}
	return documentViewResponse{
		CandidateID: view.CandidateID,
		Stage:       view.Stage,
		Documents:   docs,
		Counts:      counts,
		DocStatus:   view.DocStatus,
		Files:       view.Files,
		Degraded:    view.Degraded,
	}
}

func (rt *Router) getDocuments(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "candidateId")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	view, err := rt.deps.Verification.Documents(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordFolderListing(serviceName, view.Degraded)
	}
	writeJSON(w, http.StatusOK, rt.toDocumentViewResponse(view))
}

func (rt *Router) syncDocuments(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "candidateId")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	view, err := rt.deps.Verification.SyncDrive(r.Context(), id)
	rt.recordAction("sync_drive", err)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt.toDocumentViewResponse(view))
}

func (rt *Router) toggleDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "candidateId")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	key, err := pathParam(r, "documentKey")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req struct {
		Field string `json:"field"`
		Value bool   `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	view, err := rt.deps.Verification.ToggleDocument(r.Context(), id, key, domain.DocumentField(req.Field), req.Value)
	rt.recordAction("toggle_document", err)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt.toDocumentViewResponse(view))
}

func (rt *Router) listFolderFiles(w http.ResponseWriter, r *http.Request) {
	folderID, err := pathParam(r, "folderId")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	files, degraded := rt.deps.Verification.ListFolder(r.Context(), folderID)
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordFolderListing(serviceName, degraded)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"folderId": folderID,
		"files":    files,
		"degraded": degraded,
	})
}

func (rt *Router) exportRoster(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := rt.deps.Roster.ExportRoster(r.Context(), &buf); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="candidates.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (rt *Router) recordAction(action string, err error) {
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordWorkflowAction(serviceName, action, err)
	}
}
