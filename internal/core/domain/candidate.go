package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type CandidateStatus string

const (
	StageInitiated          CandidateStatus = "Initiated"
	StageDocumentsRequested CandidateStatus = "Documents Requested"
	StageWaitingForHRNDA    CandidateStatus = "Waiting for HR NDA"
	StageFinalOfferSent     CandidateStatus = "Final Offer Sent"
	StageOfferAccepted      CandidateStatus = "Offer Accepted"
	StageOnboarded          CandidateStatus = "Onboarded"
)

var knownStages = []CandidateStatus{
	StageInitiated,
	StageDocumentsRequested,
	StageWaitingForHRNDA,
	StageFinalOfferSent,
	StageOfferAccepted,
	StageOnboarded,
}

func KnownStages() []CandidateStatus {
	out := make([]CandidateStatus, len(knownStages))
	copy(out, knownStages)
	return out
}

func ParseCandidateStatus(raw string) (CandidateStatus, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, stage := range knownStages {
		if strings.EqualFold(string(stage), trimmed) {
			return stage, true
		}
	}
	return "", false
}

var stageBadges = map[CandidateStatus]string{
	StageInitiated:          "status-initiated",
	StageDocumentsRequested: "status-requested",
	StageFinalOfferSent:     "status-offer",
	StageOfferAccepted:      "status-accepted",
	StageOnboarded:          "status-onboarded",
}

// BadgeClass is the list-view badge class; unknown stages fall back to status-default.
func (s CandidateStatus) BadgeClass() string {
	if class, ok := stageBadges[s]; ok {
		return class
	}
	return "status-default"
}

// Slug is the detail-view class: lowercase with whitespace runs collapsed to "-".
func (s CandidateStatus) Slug() string {
	return "status-" + strings.Join(strings.Fields(strings.ToLower(string(s))), "-")
}

type LogEntry struct {
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
	Event     string    `json:"event" firestore:"event"`
}

const (
	MailProvisional = 1
	MailReminder    = 2

	MaxReminderRules = 10
)

// ReminderRule schedules a mail afterDays days after the candidate was created.
type ReminderRule struct {
	MailNumber int `json:"mailNumber" firestore:"mailNumber"`
	AfterDays  int `json:"afterDays" firestore:"afterDays"`
}

func ValidMailNumber(n int) bool {
	return n == MailProvisional || n == MailReminder
}

// NormalizeReminders validates the schedule and returns it sorted by
// afterDays, then mailNumber.
func NormalizeReminders(rules []ReminderRule) ([]ReminderRule, error) {
	if len(rules) > MaxReminderRules {
		return nil, fmt.Errorf("at most %d reminder rules allowed, got %d", MaxReminderRules, len(rules))
	}
	out := make([]ReminderRule, 0, len(rules))
	for i, rule := range rules {
		if !ValidMailNumber(rule.MailNumber) {
			return nil, fmt.Errorf("rule %d: unknown mail number %d", i, rule.MailNumber)
		}
		if rule.AfterDays < 0 {
			return nil, fmt.Errorf("rule %d: afterDays must be >= 0", i)
		}
		out = append(out, rule)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AfterDays != out[j].AfterDays {
			return out[i].AfterDays < out[j].AfterDays
		}
		return out[i].MailNumber < out[j].MailNumber
	})
	return out, nil
}

type Candidate struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Role          string          `json:"role"`
	Salary        float64         `json:"salary"`
	Experience    float64         `json:"experience"`
	DateOfJoining string          `json:"dateOfJoining,omitempty"`
	DriveFolderID string          `json:"driveFolderId,omitempty"`
	Status        CandidateStatus `json:"status"`
	DocStatus     StatusMap       `json:"docStatus"`
	Reminders     []ReminderRule  `json:"reminders"`
	Log           []LogEntry      `json:"log"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`

	// Version is the optimistic concurrency token, bumped on every update.
	Version int64 `json:"version"`
}

// AppendLog records an activity timeline event and bumps UpdatedAt.
func (c *Candidate) AppendLog(now time.Time, format string, args ...any) {
	c.Log = append(c.Log, LogEntry{Timestamp: now, Event: fmt.Sprintf(format, args...)})
	c.UpdatedAt = now
}

// NewCandidateInput is the payload of the add-candidate form.
type NewCandidateInput struct {
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Role          string  `json:"role"`
	Salary        float64 `json:"salary"`
	Experience    float64 `json:"experience"`
	DateOfJoining string  `json:"dateOfJoining"`
	DriveFolderID string  `json:"driveFolderId"`
}

func (in NewCandidateInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("name is required")
	case strings.TrimSpace(in.Email) == "":
		return fmt.Errorf("email is required")
	case !strings.Contains(in.Email, "@"):
		return fmt.Errorf("email %q is not valid", in.Email)
	case strings.TrimSpace(in.Role) == "":
		return fmt.Errorf("role is required")
	case in.Salary < 0:
		return fmt.Errorf("salary must be >= 0")
	case in.Experience < 0:
		return fmt.Errorf("experience must be >= 0")
	}
	if in.DateOfJoining != "" {
		if _, err := time.Parse(time.DateOnly, in.DateOfJoining); err != nil {
			return fmt.Errorf("dateOfJoining must be YYYY-MM-DD: %w", err)
		}
	}
	return nil
}
