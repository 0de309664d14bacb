// internal/workers/analytics/record-assignment-outcome/models.go
package recordassignmentoutcome

type Input struct {
	OrganizationID string   `json:"organizationId"`
	RequestID      string   `json:"requestId"`
	RuleID         string   `json:"ruleId"`
	Strategy       string   `json:"strategy"`
	Fallback       bool     `json:"fallback"`
	ApproverIDs    []string `json:"approverIds"`
	JobRoleID      string   `json:"jobRoleId"`
}

type Output struct {
	OutcomesRecorded int  `json:"outcomesRecorded"`
	Indexed          bool `json:"indexed"`
}
