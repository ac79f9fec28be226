package model

import "time"

type CaseSeverity string

const (
	SeverityLow    CaseSeverity = "low"
	SeverityMedium CaseSeverity = "medium"
	SeverityHigh   CaseSeverity = "high"
)

func (s CaseSeverity) Valid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

type CaseStatus string

const (
	CasePending       CaseStatus = "pending"
	CaseInvestigating CaseStatus = "investigating"
	CaseResolved      CaseStatus = "resolved"
	CaseDismissed     CaseStatus = "dismissed"
)

// Terminal reports whether the status permits no further transitions.
func (s CaseStatus) Terminal() bool {
	return s == CaseResolved || s == CaseDismissed
}

// CaseAction is what a moderator does when resolving a case.
type CaseAction string

const (
	ActionDismiss  CaseAction = "dismiss"
	ActionWarn     CaseAction = "warn"
	ActionSuspend  CaseAction = "suspend"
	ActionEscalate CaseAction = "escalate"
)

func (a CaseAction) Valid() bool {
	switch a {
	case ActionDismiss, ActionWarn, ActionSuspend, ActionEscalate:
		return true
	}
	return false
}

type ModerationCase struct {
	ID                int64        `json:"id"`
	Ref               string       `json:"ref"`
	SubjectAccountID  int64        `json:"subject_account_id"`
	ContentRef        string       `json:"content_ref,omitempty"`
	Severity          CaseSeverity `json:"severity"`
	Status            CaseStatus   `json:"status"`
	ReporterAccountID *int64       `json:"reporter_account_id,omitempty"`
	ResolutionNotes   string       `json:"resolution_notes,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	ResolvedAt        *time.Time   `json:"resolved_at,omitempty"`
}
