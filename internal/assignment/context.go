// internal/assignment/context.go
package assignment

// OrgContext scopes every routing call to one tenant. It is passed
// explicitly into each operation; the engine keeps no ambient state.
type OrgContext struct {
	OrganizationID string `json:"organizationId"`
	RequesterID    string `json:"requesterId,omitempty"`
}
