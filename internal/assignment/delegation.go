// internal/assignment/delegation.go
package assignment

import (
	"context"
	"time"

	"routing-workers/internal/common/logger"
	"routing-workers/internal/models"

	"github.com/google/uuid"
)

// DelegationStore persists delegation and outcome rows.
type DelegationStore interface {
	InsertDelegation(ctx context.Context, d models.Delegation) error
	InsertOutcome(ctx context.Context, o models.AssignmentOutcome) error
	ActiveDelegations(ctx context.Context, org OrgContext, approverID string) ([]models.Delegation, error)
}

// Ledger records transfers of approval authority. All writes are
// fire-and-forget from the workflow's perspective: failures are logged
// and reported as false, never raised.
type Ledger struct {
	store DelegationStore
	log   logger.Logger
	now   func() time.Time
}

func NewLedger(store DelegationStore, log logger.Logger) *Ledger {
	return &Ledger{store: store, log: log, now: time.Now}
}

// CreateDelegation inserts one active delegation row plus a tracking
// record for the original approver. Returns false on validation or
// persistence failure; it never returns an error.
func (l *Ledger) CreateDelegation(ctx context.Context, org OrgContext, requestID, originalApproverID, delegateApproverID, reason string, expiresAt *time.Time) bool {
	now := l.now().UTC()

	if originalApproverID == "" || delegateApproverID == "" || originalApproverID == delegateApproverID {
		l.log.Warn("rejecting invalid delegation", map[string]interface{}{
			"organizationId":     org.OrganizationID,
			"originalApproverId": originalApproverID,
			"delegateApproverId": delegateApproverID,
		})
		return false
	}
	if expiresAt != nil && !expiresAt.After(now) {
		l.log.Warn("rejecting delegation with expiry in the past", map[string]interface{}{
			"organizationId": org.OrganizationID,
			"expiresAt":      expiresAt.Format(time.RFC3339),
		})
		return false
	}

	delegation := models.Delegation{
		ID:                 uuid.NewString(),
		OrganizationID:     org.OrganizationID,
		RequestID:          requestID,
		OriginalApproverID: originalApproverID,
		DelegateApproverID: delegateApproverID,
		Reason:             reason,
		CreatedAt:          now,
		ExpiresAt:          expiresAt,
		Active:             true,
	}

	if err := l.store.InsertDelegation(ctx, delegation); err != nil {
		l.log.Error("delegation insert failed", map[string]interface{}{
			"organizationId": org.OrganizationID,
			"delegationId":   delegation.ID,
			"error":          err.Error(),
		})
		return false
	}

	tracking := models.AssignmentOutcome{
		ID:             uuid.NewString(),
		OrganizationID: org.OrganizationID,
		RequestID:      requestID,
		ApproverID:     originalApproverID,
		Strategy:       "delegation",
		Timestamp:      now,
	}
	if err := l.store.InsertOutcome(ctx, tracking); err != nil {
		l.log.Error("delegation tracking insert failed", map[string]interface{}{
			"organizationId": org.OrganizationID,
			"delegationId":   delegation.ID,
			"error":          err.Error(),
		})
		return false
	}

	return true
}

// GetActiveDelegations returns the approver's active rows, org-scoped.
// Expiry is not filtered; an expired-but-active row is returned as-is
// and the caller owns the revocation transition.
func (l *Ledger) GetActiveDelegations(ctx context.Context, org OrgContext, approverID string) []models.Delegation {
	delegations, err := l.store.ActiveDelegations(ctx, org, approverID)
	if err != nil {
		l.log.Warn("delegation read failed", map[string]interface{}{
			"organizationId": org.OrganizationID,
			"approverId":     approverID,
			"error":          err.Error(),
		})
		return nil
	}
	return delegations
}

// ResolveDelegate redirects a chosen approver through their most recent
// active, unexpired delegation. Expired rows are treated as stale and
// skipped; a single hop is applied, never a chain.
func (l *Ledger) ResolveDelegate(ctx context.Context, org OrgContext, approverID string) string {
	now := l.now()
	for _, d := range l.GetActiveDelegations(ctx, org, approverID) {
		if d.IsExpired(now) {
			continue
		}
		if d.DelegateApproverID == "" || d.DelegateApproverID == approverID {
			continue
		}
		return d.DelegateApproverID
	}
	return approverID
}
