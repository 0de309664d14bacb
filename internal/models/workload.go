package models

// ApproverWorkload is the per-approver aggregate read from the
// analytics store. Never written by the routing engine.
type ApproverWorkload struct {
	ApproverID         string  `json:"approverId"`
	ActiveRequestCount int     `json:"activeRequestCount"`
	PendingCount       int     `json:"pendingCount"`
	AvgPendingHours    float64 `json:"avgPendingHours,omitempty"`
}

// Score is the workload ranking key; lower is less loaded.
func (w ApproverWorkload) Score() int {
	return w.PendingCount*2 + w.ActiveRequestCount
}

// WorkloadSnapshot maps approver id to workload for one organization.
type WorkloadSnapshot map[string]ApproverWorkload

// ScoreFor returns the workload score for an approver, or zero when the
// snapshot has no row for them (an unknown approver is treated as idle).
func (s WorkloadSnapshot) ScoreFor(approverID string) int {
	if w, ok := s[approverID]; ok {
		return w.Score()
	}
	return 0
}
