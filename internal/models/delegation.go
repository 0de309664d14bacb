package models

import "time"

// Delegation is one transfer of approval authority. Rows go inactive
// by explicit revoke; expires_at is advisory and checked by readers.
type Delegation struct {
	ID                 string     `json:"id"`
	OrganizationID     string     `json:"organizationId"`
	RequestID          string     `json:"requestId,omitempty"`
	OriginalApproverID string     `json:"originalApproverId"`
	DelegateApproverID string     `json:"delegateApproverId"`
	Reason             string     `json:"reason,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	Active             bool       `json:"active"`
}

// IsExpired reports whether the delegation's expiry has passed.
func (d Delegation) IsExpired(now time.Time) bool {
	return d.ExpiresAt != nil && !d.ExpiresAt.After(now)
}
