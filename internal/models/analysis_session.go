package models

import "time"

// PlanTier controls report completeness, not score computation.
type PlanTier string

const (
	TierFree PlanTier = "free"
	TierPaid PlanTier = "paid"
	TierPro  PlanTier = "pro"
)

// ParseTier validates and normalizes a tier string.
func ParseTier(s string) (PlanTier, bool) {
	switch PlanTier(s) {
	case TierFree, TierPaid, TierPro:
		return PlanTier(s), true
	}
	return "", false
}

// SessionStatus is the payment lifecycle state of an analysis session.
// pending -> paid and pending -> failed are the only transitions; both
// targets are terminal.
type SessionStatus string

const (
	SessionPending SessionStatus = "pending"
	SessionPaid    SessionStatus = "paid"
	SessionFailed  SessionStatus = "failed"
)

// AnalysisSession correlates one analysis request with its payment lifecycle.
// Created once per request; only the payment workers mutate Status.
type AnalysisSession struct {
	ID           string        `json:"id" db:"id"`
	Coordinate   Coordinate    `json:"coordinate"`
	Amount       int64         `json:"amount" db:"amount"` // tier base price, base currency units
	PropertyType string        `json:"propertyType" db:"property_type"`
	PlanTier     PlanTier      `json:"planTier" db:"plan_tier"`
	Status       SessionStatus `json:"status" db:"status"`
	CanProceed   bool          `json:"canProceed" db:"can_proceed"`
	RiskLevel    string        `json:"riskLevel" db:"risk_level"`
	Result       *ScoredReport `json:"result,omitempty"`
	CreatedAt    time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" db:"updated_at"`
}

// IsTerminal reports whether the session can no longer change status.
func (s *AnalysisSession) IsTerminal() bool {
	return s.Status == SessionPaid || s.Status == SessionFailed
}
