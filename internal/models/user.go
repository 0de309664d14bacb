package models

// CandidateUser is one member of the organization's candidate pool.
// Sourced from the user directory; read-only to the routing engine.
type CandidateUser struct {
	ID             string   `json:"id"`
	OrganizationID string   `json:"organizationId"`
	Role           string   `json:"role"`
	JobRoles       []string `json:"jobRoles,omitempty"`
	PrimaryJobRole string   `json:"primaryJobRole,omitempty"`
	ExpertiseTags  []string `json:"expertiseTags,omitempty"`
	Location       string   `json:"location,omitempty"`
	TeamIDs        []string `json:"teamIds,omitempty"`
}

// JobRoleMembership is one (user, jobRole, isPrimary) directory row.
type JobRoleMembership struct {
	UserID      string `json:"userId"`
	JobRoleID   string `json:"jobRoleId"`
	JobRoleName string `json:"jobRoleName"`
	IsPrimary   bool   `json:"isPrimary"`
}

// RequestContext carries the request fields the routing engine reads,
// plus the request type's assignment configuration.
type RequestContext struct {
	RequestID        string   `json:"requestId"`
	Priority         string   `json:"priority,omitempty"`
	Amount           float64  `json:"amount,omitempty"`
	Location         string   `json:"location,omitempty"`
	DefaultJobRoles  []string `json:"defaultJobRoles,omitempty"`
	ExpertiseTags    []string `json:"expertiseTags,omitempty"`
	ConsiderWorkload bool     `json:"considerWorkload,omitempty"`
}
