// internal/workers/assignment/assign-approvers/models.go
package assignapprovers

import "routing-workers/internal/models"

// Input is the job variable set posted on request submission. The
// candidate pool is the org's eligible approver directory, resolved
// upstream in the process.
type Input struct {
	OrganizationID   string                 `json:"organizationId"`
	RequesterID      string                 `json:"requesterId"`
	RequestID        string                 `json:"requestId"`
	RequestTypeID    string                 `json:"requestTypeId"`
	Priority         string                 `json:"priority"`
	Amount           float64                `json:"amount"`
	Location         string                 `json:"location"`
	DefaultJobRoles  []string               `json:"defaultJobRoles"`
	ExpertiseTags    []string               `json:"expertiseTags"`
	ConsiderWorkload bool                   `json:"considerWorkload"`
	CandidatePool    []models.CandidateUser `json:"candidatePool"`
}

type Output struct {
	AssigneeIDs []string `json:"assigneeIds"`
	RuleID      string   `json:"ruleId,omitempty"`
	Strategy    string   `json:"strategy,omitempty"`
	Fallback    bool     `json:"fallback"`
}
