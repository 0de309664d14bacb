// internal/workers/notification/send-assignment-notification/models.go
package sendassignmentnotification

// ApproverContact is one recipient of the assignment notification.
type ApproverContact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Input struct {
	OrganizationID string            `json:"organizationId"`
	RequestID      string            `json:"requestId"`
	RequestTitle   string            `json:"requestTitle"`
	Priority       string            `json:"priority"`
	Approvers      []ApproverContact `json:"approvers"`
}

type Output struct {
	EmailsSent int `json:"emailsSent"`
	SMSSent    int `json:"smsSent"`
}

// Priority levels, lowest to highest.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)
