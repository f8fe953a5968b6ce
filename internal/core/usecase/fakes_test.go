package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
)

var testCatalog = domain.Catalog{
	{Key: "nda", DisplayName: "Signed NDA", Keywords: []string{"signed nda", "signed_nda", "nda_signed"}},
	{Key: "aadhaar", DisplayName: "Aadhaar Card", Keywords: []string{"aadhaar", "uid"}},
	{Key: "pan", DisplayName: "PAN Card", Keywords: []string{"pan", "pancard"}},
}

type candidateRepoFake struct {
	mu        sync.Mutex
	items     map[string]domain.Candidate
	createErr error
	updateErr error
	listErr   error
	updates   int
	stale     int

	// beforeUpdate runs ahead of the version check, outside the lock, so a
	// test can commit a competing write between a read and its save.
	beforeUpdate func(c *domain.Candidate)
}

func newCandidateRepoFake(items ...domain.Candidate) *candidateRepoFake {
	f := &candidateRepoFake{items: make(map[string]domain.Candidate)}
	for _, c := range items {
		f.items[c.ID] = cloneCandidate(c)
	}
	return f
}

func (f *candidateRepoFake) Create(_ context.Context, c *domain.Candidate) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[c.ID] = cloneCandidate(*c)
	return nil
}

func (f *candidateRepoFake) GetByID(_ context.Context, id string) (*domain.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrCandidateNotFound, "get candidate", fmt.Errorf("id=%s", id))
	}
	out := cloneCandidate(c)
	return &out, nil
}

func (f *candidateRepoFake) List(context.Context) ([]domain.Candidate, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Candidate, 0, len(f.items))
	for _, c := range f.items {
		out = append(out, cloneCandidate(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *candidateRepoFake) Update(_ context.Context, c *domain.Candidate) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if hook := f.beforeUpdate; hook != nil {
		f.beforeUpdate = nil
		hook(c)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.items[c.ID]
	if !ok {
		return domain.WrapError(domain.ErrCandidateNotFound, "update candidate", fmt.Errorf("id=%s", c.ID))
	}
	if current.Version != c.Version {
		f.stale++
		return domain.WrapError(domain.ErrConflict, "update candidate",
			fmt.Errorf("%w: id=%s version=%d stored=%d", domain.ErrStaleRecord, c.ID, c.Version, current.Version))
	}
	c.Version++
	f.items[c.ID] = cloneCandidate(*c)
	f.updates++
	return nil
}

func (f *candidateRepoFake) stored(id string) domain.Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneCandidate(f.items[id])
}

func cloneCandidate(c domain.Candidate) domain.Candidate {
	c.DocStatus = c.DocStatus.Clone()
	c.Log = append([]domain.LogEntry(nil), c.Log...)
	c.Reminders = append([]domain.ReminderRule(nil), c.Reminders...)
	return c
}

type listerFake struct {
	mu      sync.Mutex
	files   map[string][]domain.RemoteFile
	err     error
	calls   int
	failFor map[string]bool
}

func (f *listerFake) ListFiles(_ context.Context, folderID string) ([]domain.RemoteFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.failFor[folderID] {
		return nil, errors.New("drive unavailable")
	}
	return f.files[folderID], nil
}

// blockingLister parks ListFiles until release is closed.
type blockingLister struct {
	files   []domain.RemoteFile
	entered chan struct{}
	release chan struct{}
}

func newBlockingLister(files ...domain.RemoteFile) *blockingLister {
	return &blockingLister{files: files, entered: make(chan struct{}), release: make(chan struct{})}
}

func (l *blockingLister) ListFiles(ctx context.Context, _ string) ([]domain.RemoteFile, error) {
	close(l.entered)
	select {
	case <-l.release:
		return l.files, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type publisherFake struct {
	mu     sync.Mutex
	events []domain.WorkflowEvent
	err    error
}

func (f *publisherFake) PublishEvent(_ context.Context, event domain.WorkflowEvent) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *publisherFake) kinds() []domain.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.EventKind, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Kind)
	}
	return out
}
