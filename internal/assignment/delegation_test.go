// internal/assignment/delegation_test.go
package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func delegationColumns() []string {
	return []string{
		"id", "organization_id", "request_id", "original_approver_id",
		"delegate_approver_id", "reason", "created_at", "expires_at", "active",
	}
}

func newTestLedger(t *testing.T) (*Ledger, sqlmock.Sqlmock) {
	db, mock := setupMockDB(t)
	store := NewStoreFromDB(db, newLog(t))
	return NewLedger(store, newLog(t)), mock
}

// ==========================
// CreateDelegation
// ==========================

func TestLedger_CreateDelegationSuccess(t *testing.T) {
	ledger, mock := newTestLedger(t)

	mock.ExpectExec(`INSERT INTO delegations`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO assignment_outcomes`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok := ledger.CreateDelegation(context.Background(), testOrg(), "req-1", "approver-a", "approver-b", "vacation", nil)

	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_CreateDelegationPersistenceFailureReturnsFalse(t *testing.T) {
	ledger, mock := newTestLedger(t)

	mock.ExpectExec(`INSERT INTO delegations`).
		WillReturnError(assert.AnError)

	// Persistence failure is reported as false, never raised; a routing
	// decision computed before the call is untouched.
	ok := ledger.CreateDelegation(context.Background(), testOrg(), "req-1", "approver-a", "approver-b", "", nil)

	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_CreateDelegationTrackingFailureReturnsFalse(t *testing.T) {
	ledger, mock := newTestLedger(t)

	mock.ExpectExec(`INSERT INTO delegations`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO assignment_outcomes`).
		WillReturnError(assert.AnError)

	ok := ledger.CreateDelegation(context.Background(), testOrg(), "req-1", "approver-a", "approver-b", "", nil)

	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_CreateDelegationValidation(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name      string
		original  string
		delegate  string
		expiresAt *time.Time
	}{
		{"missing original approver", "", "approver-b", nil},
		{"missing delegate", "approver-a", "", nil},
		{"self delegation", "approver-a", "approver-a", nil},
		{"expiry in the past", "approver-a", "approver-b", &past},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, mock := newTestLedger(t)

			ok := ledger.CreateDelegation(context.Background(), testOrg(), "req-1", tt.original, tt.delegate, "", tt.expiresAt)

			assert.False(t, ok)
			// Invalid input never reaches the store.
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("future expiry is accepted", func(t *testing.T) {
		ledger, mock := newTestLedger(t)

		mock.ExpectExec(`INSERT INTO delegations`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO assignment_outcomes`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok := ledger.CreateDelegation(context.Background(), testOrg(), "req-1", "approver-a", "approver-b", "", &future)

		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// ==========================
// GetActiveDelegations
// ==========================

func TestLedger_GetActiveDelegationsReturnsExpiredRows(t *testing.T) {
	ledger, mock := newTestLedger(t)

	expired := time.Now().Add(-time.Hour)
	mock.ExpectQuery(`FROM delegations`).
		WithArgs("org-1", "approver-a").
		WillReturnRows(sqlmock.NewRows(delegationColumns()).
			AddRow("d1", "org-1", "req-1", "approver-a", "approver-b", "", time.Now(), &expired, true))

	// Expired-but-active rows come back as-is; the caller owns the
	// revocation transition.
	delegations := ledger.GetActiveDelegations(context.Background(), testOrg(), "approver-a")

	assert.Len(t, delegations, 1)
	assert.True(t, delegations[0].IsExpired(time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_GetActiveDelegationsReadFailureReturnsNil(t *testing.T) {
	ledger, mock := newTestLedger(t)

	mock.ExpectQuery(`FROM delegations`).
		WithArgs("org-1", "approver-a").
		WillReturnError(assert.AnError)

	delegations := ledger.GetActiveDelegations(context.Background(), testOrg(), "approver-a")

	assert.Nil(t, delegations)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// ResolveDelegate
// ==========================

func TestLedger_ResolveDelegateSkipsExpiredRows(t *testing.T) {
	ledger, mock := newTestLedger(t)

	expired := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	mock.ExpectQuery(`FROM delegations`).
		WithArgs("org-1", "approver-a").
		WillReturnRows(sqlmock.NewRows(delegationColumns()).
			AddRow("d1", "org-1", "", "approver-a", "stale-delegate", "", time.Now(), &expired, true).
			AddRow("d2", "org-1", "", "approver-a", "approver-b", "", time.Now(), &future, true))

	delegate := ledger.ResolveDelegate(context.Background(), testOrg(), "approver-a")

	assert.Equal(t, "approver-b", delegate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_ResolveDelegateNoDelegationsReturnsApprover(t *testing.T) {
	ledger, mock := newTestLedger(t)

	mock.ExpectQuery(`FROM delegations`).
		WithArgs("org-1", "approver-a").
		WillReturnRows(sqlmock.NewRows(delegationColumns()))

	delegate := ledger.ResolveDelegate(context.Background(), testOrg(), "approver-a")

	assert.Equal(t, "approver-a", delegate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_ResolveDelegateReadFailureReturnsApprover(t *testing.T) {
	ledger, mock := newTestLedger(t)

	mock.ExpectQuery(`FROM delegations`).
		WithArgs("org-1", "approver-a").
		WillReturnError(assert.AnError)

	delegate := ledger.ResolveDelegate(context.Background(), testOrg(), "approver-a")

	assert.Equal(t, "approver-a", delegate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_ResolveDelegateStandingDelegationWithoutExpiry(t *testing.T) {
	ledger, mock := newTestLedger(t)

	mock.ExpectQuery(`FROM delegations`).
		WithArgs("org-1", "approver-a").
		WillReturnRows(sqlmock.NewRows(delegationColumns()).
			AddRow("d1", "org-1", "", "approver-a", "approver-b", "standing", time.Now(), nil, true))

	delegate := ledger.ResolveDelegate(context.Background(), testOrg(), "approver-a")

	assert.Equal(t, "approver-b", delegate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
