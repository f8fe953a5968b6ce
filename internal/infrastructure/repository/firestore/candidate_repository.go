package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
)

const defaultCollection = "candidates"

// CandidateRepository keeps one Firestore document per candidate,
// keyed by candidate ID.
type CandidateRepository struct {
	client     *firestore.Client
	collection string
}

func NewClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return client, nil
}

func NewCandidateRepository(client *firestore.Client, collection string) *CandidateRepository {
	if collection == "" {
		collection = defaultCollection
	}
	return &CandidateRepository{client: client, collection: collection}
}

func (r *CandidateRepository) Create(ctx context.Context, c *domain.Candidate) error {
	_, err := r.client.Collection(r.collection).Doc(c.ID).Create(ctx, toRecord(c))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return domain.WrapError(domain.ErrConflict, "create candidate", fmt.Errorf("id=%s", c.ID))
		}
		return wrapFirestoreError("create candidate", err)
	}
	return nil
}

func (r *CandidateRepository) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	snap, err := r.client.Collection(r.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.WrapError(domain.ErrCandidateNotFound, "get candidate", fmt.Errorf("id=%s", id))
		}
		return nil, wrapFirestoreError("get candidate", err)
	}
	return decodeSnapshot(snap)
}

func (r *CandidateRepository) List(ctx context.Context) ([]domain.Candidate, error) {
	iter := r.client.Collection(r.collection).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	out := make([]domain.Candidate, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, wrapFirestoreError("list candidates", err)
		}
		c, err := decodeSnapshot(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

// Update rewrites the mutable fields inside a transaction that first checks
// the stored version against c.Version.
func (r *CandidateRepository) Update(ctx context.Context, c *domain.Candidate) error {
	ref := r.client.Collection(r.collection).Doc(c.ID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var stored candidateRecord
		if err := snap.DataTo(&stored); err != nil {
			return fmt.Errorf("decode candidate %s: %w", c.ID, err)
		}
		if err := checkVersion(c.ID, stored.Version, c.Version); err != nil {
			return err
		}
		return tx.Update(ref, recordUpdates(toRecord(c)))
	})
	if err != nil {
		if domain.IsKind(err, domain.ErrStaleRecord) {
			return err
		}
		if status.Code(err) == codes.NotFound {
			return domain.WrapError(domain.ErrCandidateNotFound, "update candidate", fmt.Errorf("id=%s", c.ID))
		}
		return wrapFirestoreError("update candidate", err)
	}
	c.Version++
	return nil
}

func checkVersion(id string, stored, expected int64) error {
	if stored == expected {
		return nil
	}
	return domain.WrapError(domain.ErrConflict, "update candidate",
		fmt.Errorf("%w: id=%s version=%d stored=%d", domain.ErrStaleRecord, id, expected, stored))
}

// recordUpdates lists the field writes for rec with the version bumped.
func recordUpdates(rec candidateRecord) []firestore.Update {
	return []firestore.Update{
		{Path: "name", Value: rec.Name},
		{Path: "email", Value: rec.Email},
		{Path: "role", Value: rec.Role},
		{Path: "salary", Value: rec.Salary},
		{Path: "experience", Value: rec.Experience},
		{Path: "dateOfJoining", Value: rec.DateOfJoining},
		{Path: "driveFolderId", Value: rec.DriveFolderID},
		{Path: "status", Value: rec.Status},
		{Path: "docStatus", Value: rec.DocStatus},
		{Path: "reminders", Value: rec.Reminders},
		{Path: "log", Value: rec.Log},
		{Path: "updatedAt", Value: rec.UpdatedAt},
		{Path: "version", Value: rec.Version + 1},
	}
}

type candidateRecord struct {
	Name          string                                 `firestore:"name"`
	Email         string                                 `firestore:"email"`
	Role          string                                 `firestore:"role"`
	Salary        float64                                `firestore:"salary"`
	Experience    float64                                `firestore:"experience"`
	DateOfJoining string                                 `firestore:"dateOfJoining"`
	DriveFolderID string                                 `firestore:"driveFolderId"`
	Status        string                                 `firestore:"status"`
	DocStatus     map[string]domain.DocumentStatusRecord `firestore:"docStatus"`
	Reminders     []domain.ReminderRule                  `firestore:"reminders"`
	Log           []domain.LogEntry                      `firestore:"log"`
	CreatedAt     time.Time                              `firestore:"createdAt"`
	UpdatedAt     time.Time                              `firestore:"updatedAt"`
	Version       int64                                  `firestore:"version"`
}

func toRecord(c *domain.Candidate) candidateRecord {
	statuses := map[string]domain.DocumentStatusRecord(c.DocStatus)
	if statuses == nil {
		statuses = map[string]domain.DocumentStatusRecord{}
	}
	reminders := c.Reminders
	if reminders == nil {
		reminders = []domain.ReminderRule{}
	}
	entries := c.Log
	if entries == nil {
		entries = []domain.LogEntry{}
	}
	return candidateRecord{
		Name:          c.Name,
		Email:         c.Email,
		Role:          c.Role,
		Salary:        c.Salary,
		Experience:    c.Experience,
		DateOfJoining: c.DateOfJoining,
		DriveFolderID: c.DriveFolderID,
		Status:        string(c.Status),
		DocStatus:     statuses,
		Reminders:     reminders,
		Log:           entries,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		Version:       c.Version,
	}
}

func fromRecord(id string, rec candidateRecord) *domain.Candidate {
	statuses := domain.StatusMap(rec.DocStatus)
	if statuses == nil {
		statuses = domain.StatusMap{}
	}
	return &domain.Candidate{
		ID:            id,
		Name:          rec.Name,
		Email:         rec.Email,
		Role:          rec.Role,
		Salary:        rec.Salary,
		Experience:    rec.Experience,
		DateOfJoining: rec.DateOfJoining,
		DriveFolderID: rec.DriveFolderID,
		Status:        domain.CandidateStatus(rec.Status),
		DocStatus:     statuses,
		Reminders:     rec.Reminders,
		Log:           rec.Log,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
		Version:       rec.Version,
	}
}

func decodeSnapshot(snap *firestore.DocumentSnapshot) (*domain.Candidate, error) {
	var rec candidateRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("decode candidate %s: %w", snap.Ref.ID, err)
	}
	return fromRecord(snap.Ref.ID, rec), nil
}

func wrapFirestoreError(op string, err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return domain.WrapError(domain.ErrTemporary, op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
