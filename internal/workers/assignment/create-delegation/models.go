// internal/workers/assignment/create-delegation/models.go
package createdelegation

type Input struct {
	OrganizationID     string `json:"organizationId"`
	RequesterID        string `json:"requesterId"`
	RequestID          string `json:"requestId"`
	OriginalApproverID string `json:"originalApproverId"`
	DelegateApproverID string `json:"delegateApproverId"`
	Reason             string `json:"reason"`
	ExpiresAt          string `json:"expiresAt"` // RFC 3339, empty for a standing delegation
}

type Output struct {
	DelegationCreated bool `json:"delegationCreated"`
}
