package models

import "time"

// AssignmentOutcome is the append-only audit event written once per
// successful assignment (and once per delegation grant).
type AssignmentOutcome struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	RequestID      string    `json:"requestId"`
	RuleID         string    `json:"ruleId,omitempty"`
	ApproverID     string    `json:"approverId"`
	JobRoleID      string    `json:"jobRoleId,omitempty"`
	Strategy       string    `json:"strategy,omitempty"`
	Fallback       bool      `json:"fallback"`
	Timestamp      time.Time `json:"timestamp"`
}
