package domain

import "time"

type EventKind string

const (
	EventCandidateCreated    EventKind = "candidate_created"
	EventMailResend          EventKind = "mail_resend"
	EventHRNDANudge          EventKind = "hr_nda_nudge"
	EventOfferReleased       EventKind = "offer_released"
	EventOnboardingFinalized EventKind = "onboarding_finalized"
	EventDocumentsSynced     EventKind = "documents_synced"
)

// WorkflowEvent is published for the mailer and the sync worker.
type WorkflowEvent struct {
	ID          string    `json:"id"`
	Kind        EventKind `json:"kind"`
	CandidateID string    `json:"candidateId"`
	MailNumber  int       `json:"mailNumber,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}
