package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/hr-onboarding/internal/config"
	"github.com/kirillkom/hr-onboarding/internal/core/domain"
	"github.com/kirillkom/hr-onboarding/internal/core/ports"
	"github.com/kirillkom/hr-onboarding/internal/infrastructure/resilience"
	"github.com/kirillkom/hr-onboarding/internal/observability/metrics"
)

var routerCatalog = domain.Catalog{
	{Key: "nda", DisplayName: "Signed NDA", Keywords: []string{"signed_nda"}},
	{Key: "pan", DisplayName: "PAN Card", Keywords: []string{"pan"}},
}

type candidatesFake struct {
	items     map[string]domain.Candidate
	created   []domain.NewCandidateInput
	createErr error
}

func (f *candidatesFake) Create(_ context.Context, in domain.NewCandidateInput) (*domain.Candidate, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, in)
	c := domain.Candidate{ID: "c-new", Name: in.Name, Email: in.Email, Role: in.Role, Status: domain.StageInitiated}
	return &c, nil
}

func (f *candidatesFake) List(context.Context) ([]domain.Candidate, error) {
	out := make([]domain.Candidate, 0, len(f.items))
	for _, id := range []string{"c-1", "c-2"} {
		if c, ok := f.items[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *candidatesFake) Get(_ context.Context, id string) (*domain.Candidate, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrCandidateNotFound, "get candidate", errors.New("id="+id))
	}
	return &c, nil
}

func (f *candidatesFake) OverrideStatus(ctx context.Context, id string, status domain.CandidateStatus) (*domain.Candidate, error) {
	stage, ok := domain.ParseCandidateStatus(string(status))
	if !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "override status", errors.New("unknown stage"))
	}
	c, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Status = stage
	return c, nil
}

func (f *candidatesFake) UpdateReminders(ctx context.Context, id string, rules []domain.ReminderRule) (*domain.Candidate, error) {
	c, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Reminders = rules
	return c, nil
}

type verificationFake struct {
	view      *ports.DocumentView
	syncErr   error
	toggleErr error
	degraded  bool
}

func (f *verificationFake) Catalog() domain.Catalog { return routerCatalog }

func (f *verificationFake) Documents(_ context.Context, id string) (*ports.DocumentView, error) {
	if id != "c-1" {
		return nil, domain.WrapError(domain.ErrCandidateNotFound, "documents", errors.New("id="+id))
	}
	return f.view, nil
}

func (f *verificationFake) ToggleDocument(context.Context, string, string, domain.DocumentField, bool) (*ports.DocumentView, error) {
	if f.toggleErr != nil {
		return nil, f.toggleErr
	}
	return f.view, nil
}

func (f *verificationFake) SyncDrive(context.Context, string) (*ports.DocumentView, error) {
	if f.syncErr != nil {
		return nil, f.syncErr
	}
	return f.view, nil
}

func (f *verificationFake) ListFolder(context.Context, string) ([]domain.RemoteFile, bool) {
	if f.degraded {
		return []domain.RemoteFile{}, true
	}
	return []domain.RemoteFile{{Name: "pan.pdf", ViewLink: "https://drive/pan"}}, false
}

type workflowFake struct {
	err error
}

func (f *workflowFake) ResendMail(_ context.Context, id string, mailNumber int) (*domain.WorkflowEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.WorkflowEvent{ID: "evt-1", Kind: domain.EventMailResend, CandidateID: id, MailNumber: mailNumber}, nil
}

func (f *workflowFake) ReleaseOffer(_ context.Context, id string) (*domain.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Candidate{ID: id, Status: domain.StageFinalOfferSent}, nil
}

func (f *workflowFake) Finalize(_ context.Context, id string) (*domain.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Candidate{ID: id, Status: domain.StageOnboarded}, nil
}

type rosterFake struct {
	err error
}

func (f rosterFake) ExportRoster(_ context.Context, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, "PK-fake-xlsx")
	return err
}

type breakersFake struct{}

func (breakersFake) BreakerStates() []resilience.BreakerState {
	return []resilience.BreakerState{{Operation: "drive.list", State: "open"}}
}

type serviceFakes struct {
	candidates   *candidatesFake
	verification *verificationFake
	workflow     *workflowFake
	roster       rosterFake
}

func newServiceFakes() *serviceFakes {
	view := &ports.DocumentView{
		CandidateID: "c-1",
		Stage:       domain.StageDocumentsRequested,
		Documents: domain.Resolve(routerCatalog, domain.StatusMap{"nda": {Verified: true}}, []domain.RemoteFile{
			{Name: "pan.pdf", ViewLink: "https://drive/pan"},
		}),
		DocStatus: domain.StatusMap{"nda": {Verified: true}},
		Files:     []domain.RemoteFile{{Name: "pan.pdf", ViewLink: "https://drive/pan"}},
	}
	return &serviceFakes{
		candidates: &candidatesFake{items: map[string]domain.Candidate{
			"c-1": {ID: "c-1", Name: "Asha", Status: domain.StageDocumentsRequested},
			"c-2": {ID: "c-2", Name: "Ravi", Status: domain.StageOnboarded},
		}},
		verification: &verificationFake{view: view},
		workflow:     &workflowFake{},
	}
}

func newTestHandler(cfg config.Config, fakes *serviceFakes) http.Handler {
	return NewRouter(cfg, Dependencies{
		Candidates:   fakes.candidates,
		Verification: fakes.verification,
		Workflow:     fakes.workflow,
		Roster:       fakes.roster,
		Metrics:      metrics.NewHTTPServerMetrics(serviceName),
		Breakers:     breakersFake{},
	}).Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func decodeBody(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", res.Body.String(), err)
	}
	return out
}

func TestHealthzReportsBreakers(t *testing.T) {
	handler := newTestHandler(config.Config{}, newServiceFakes())
	res := doJSON(t, handler, http.MethodGet, "/healthz", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
	body := decodeBody(t, res)
	if breakers, ok := body["breakers"].([]any); !ok || len(breakers) != 1 {
		t.Fatalf("expected breaker states, got %v", body)
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	handler := newTestHandler(config.Config{}, newServiceFakes())
	req := httptest.NewRequest(http.MethodGet, "/v1/catalog", nil)
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if got := res.Header().Get(requestIDHeader); got != "req-42" {
		t.Fatalf("expected propagated request id, got %q", got)
	}
}

func TestCatalogListsRequirementsAndStages(t *testing.T) {
	handler := newTestHandler(config.Config{}, newServiceFakes())
	res := doJSON(t, handler, http.MethodGet, "/v1/catalog", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	body := decodeBody(t, res)
	if reqs, ok := body["requirements"].([]any); !ok || len(reqs) != len(routerCatalog) {
		t.Fatalf("expected catalog requirements, got %v", body["requirements"])
	}
	stages, ok := body["stages"].([]any)
	if !ok || len(stages) != len(domain.KnownStages()) {
		t.Fatalf("expected every known stage, got %v", body["stages"])
	}
	if stages[0] != string(domain.StageInitiated) || stages[len(stages)-1] != string(domain.StageOnboarded) {
		t.Fatalf("expected stages in pipeline order, got %v", stages)
	}
}

func TestCreateCandidate(t *testing.T) {
	fakes := newServiceFakes()
	handler := newTestHandler(config.Config{}, fakes)

	res := doJSON(t, handler, http.MethodPost, "/v1/candidates", map[string]any{
		"name": "Asha", "email": "asha@example.com", "role": "Engineer", "salary": 100,
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	body := decodeBody(t, res)
	if body["badgeClass"] != "status-initiated" || body["statusSlug"] != "status-initiated" {
		t.Fatalf("unexpected badge fields %v", body)
	}
	if len(fakes.candidates.created) != 1 {
		t.Fatalf("expected service call")
	}
}

func TestCreateCandidateRejectedBySchema(t *testing.T) {
	fakes := newServiceFakes()
	handler := newTestHandler(config.Config{}, fakes)

	res := doJSON(t, handler, http.MethodPost, "/v1/candidates", map[string]any{"email": "asha@example.com", "role": "Engineer"})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(decodeBody(t, res)["error"].(string), "request body") {
		t.Fatalf("expected body validation message, got %s", res.Body.String())
	}
	if len(fakes.candidates.created) != 0 {
		t.Fatalf("service must not be called for invalid body")
	}
}

func TestListCandidatesFiltersByStatus(t *testing.T) {
	handler := newTestHandler(config.Config{}, newServiceFakes())

	res := doJSON(t, handler, http.MethodGet, "/v1/candidates?status=onboarded", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	items := decodeBody(t, res)["candidates"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["id"] != "c-2" {
		t.Fatalf("unexpected filtered list %v", items)
	}

	res = doJSON(t, handler, http.MethodGet, "/v1/candidates?status=hired", nil)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", res.Code)
	}
}

func TestGetCandidateReturns404ForNotFound(t *testing.T) {
	handler := newTestHandler(config.Config{}, newServiceFakes())
	res := doJSON(t, handler, http.MethodGet, "/v1/candidates/missing", nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestOverrideStatusMapsInvalidStageTo400(t *testing.T) {
	handler := newTestHandler(config.Config{}, newServiceFakes())
	res := doJSON(t, handler, http.MethodPut, "/v1/candidates/c-1/status", map[string]any{"status": "Hired"})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUpdateRemindersSchemaRejectsUnknownMail(t *testing.T) {
	handler := newTestHandler(config.Config{}, newServiceFakes())
	res := doJSON(t, handler, http.MethodPut, "/v1/candidates/c-1/reminders", map[string]any{
		"reminders": []map[string]any{{"mailNumber": 3, "afterDays": 1}},
	})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetDocumentsResponseShape(t *testing.T) {
	handler := newTestHandler(config.Config{}, newServiceFakes())
	res := doJSON(t, handler, http.MethodGet, "/v1/candidates/c-1/documents", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	body := decodeBody(t, res)
	docs := body["documents"].([]any)
	if len(docs) != 2 {
		t.Fatalf("expected one entry per catalog key, got %v", docs)
	}
	nda := docs[0].(map[string]any)
	if nda["key"] != "nda" || nda["status"] != "Verified" || nda["badgeClass"] != "tag-success" {
		t.Fatalf("unexpected nda entry %v", nda)
	}
	pan := docs[1].(map[string]any)
	if pan["status"] != "Uploaded" || pan["matchedFile"].(map[string]any)["viewLink"] != "https://drive/pan" {
		t.Fatalf("unexpected pan entry %v", pan)
	}
	counts := body["counts"].(map[string]any)
	if counts["Verified"] != float64(1) || counts["Uploaded"] != float64(1) {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestToggleDocumentSchemaRejectsUnknownField(t *testing.T) {
	handler := newTestHandler(config.Config{}, newServiceFakes())
	res := doJSON(t, handler, http.MethodPatch, "/v1/candidates/c-1/documents/pan", map[string]any{"field": "name", "value": true})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}

	res = doJSON(t, handler, http.MethodPatch, "/v1/candidates/c-1/documents/pan", map[string]any{"field": "verified", "value": true})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
}

func TestSyncDocumentsMapsTemporaryTo503(t *testing.T) {
	fakes := newServiceFakes()
	fakes.verification.syncErr = domain.WrapError(domain.ErrTemporary, "sync drive", errors.New("drive 500"))
	handler := newTestHandler(config.Config{}, fakes)

	res := doJSON(t, handler, http.MethodPost, "/v1/candidates/c-1/documents/sync", nil)
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestWorkflowEndpoints(t *testing.T) {
	fakes := newServiceFakes()
	handler := newTestHandler(config.Config{}, fakes)

	res := doJSON(t, handler, http.MethodPost, "/v1/candidates/c-1/mail", map[string]any{"mailNumber": 2})
	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}
	if decodeBody(t, res)["kind"] != string(domain.EventMailResend) {
		t.Fatalf("unexpected event %s", res.Body.String())
	}

	res = doJSON(t, handler, http.MethodPost, "/v1/candidates/c-1/mail", map[string]any{"mailNumber": 5})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mail, got %d", res.Code)
	}

	res = doJSON(t, handler, http.MethodPost, "/v1/candidates/c-1/offer", nil)
	if res.Code != http.StatusOK || decodeBody(t, res)["status"] != string(domain.StageFinalOfferSent) {
		t.Fatalf("unexpected offer response %d %s", res.Code, res.Body.String())
	}

	fakes.workflow.err = domain.WrapError(domain.ErrConflict, "finalize", errors.New("already onboarded"))
	res = doJSON(t, handler, http.MethodPost, "/v1/candidates/c-1/finalize", nil)
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
}

func TestListFolderFilesDegraded(t *testing.T) {
	fakes := newServiceFakes()
	fakes.verification.degraded = true
	handler := newTestHandler(config.Config{}, fakes)

	res := doJSON(t, handler, http.MethodGet, "/v1/folders/f-1/files", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	body := decodeBody(t, res)
	if body["degraded"] != true || len(body["files"].([]any)) != 0 {
		t.Fatalf("expected degraded empty listing, got %v", body)
	}
}

func TestExportRoster(t *testing.T) {
	handler := newTestHandler(config.Config{}, newServiceFakes())
	res := doJSON(t, handler, http.MethodGet, "/v1/exports/candidates.xlsx", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("unexpected content type %q", res.Header().Get("Content-Type"))
	}
	if res.Body.String() != "PK-fake-xlsx" {
		t.Fatalf("unexpected body %q", res.Body.String())
	}
}

func TestExportRosterFailureReturnsJSON(t *testing.T) {
	fakes := newServiceFakes()
	fakes.roster = rosterFake{err: errors.New("db down")}
	handler := newTestHandler(config.Config{}, fakes)

	res := doJSON(t, handler, http.MethodGet, "/v1/exports/candidates.xlsx", nil)
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	if res.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected JSON error body")
	}
}

func TestMetricsEndpointExposesRouteLabels(t *testing.T) {
	handler := newTestHandler(config.Config{}, newServiceFakes())
	_ = doJSON(t, handler, http.MethodGet, "/v1/candidates/c-1", nil)

	res := doJSON(t, handler, http.MethodGet, "/metrics", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), `path="GET /v1/candidates/{candidateId}"`) {
		t.Fatalf("expected pattern label in metrics output")
	}
}
