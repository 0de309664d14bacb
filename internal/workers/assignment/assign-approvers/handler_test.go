// internal/workers/assignment/assign-approvers/handler_test.go
package assignapprovers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"routing-workers/internal/assignment"
	"routing-workers/internal/common/config"
	"routing-workers/internal/common/errors"
	"routing-workers/internal/common/logger"
	"routing-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock := setupMockDB(t)
	log := logger.NewTestLogger(t)
	store := assignment.NewStoreFromDB(db, log)
	routing := assignment.NewRouting(store, nil, config.AssignmentConfig{WorkloadCacheTTL: 60000}, log)
	return NewHandler(LoadConfig(), routing, store, nil, log), mock
}

func ruleColumns() []string {
	return []string{
		"id", "organization_id", "request_type_id", "name", "rule_type",
		"conditions", "strategy", "escalation_policy", "active", "priority", "created_at",
	}
}

func delegationColumns() []string {
	return []string{
		"id", "organization_id", "request_id", "original_approver_id",
		"delegate_approver_id", "reason", "created_at", "expires_at", "active",
	}
}

func poolUser(id, role string) models.CandidateUser {
	return models.CandidateUser{ID: id, OrganizationID: "org-1", Role: role}
}

func createTestInput() *Input {
	return &Input{
		OrganizationID: "org-1",
		RequesterID:    "requester-1",
		RequestID:      "req-1",
		RequestTypeID:  "rt-1",
		CandidatePool: []models.CandidateUser{
			poolUser("manager-1", "manager"),
			poolUser("user-1", "user"),
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_RuleMatch(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery(`FROM assignment_rules`).
		WithArgs("org-1", "rt-1").
		WillReturnRows(sqlmock.NewRows(ruleColumns()).
			AddRow("rule-1", "org-1", "rt-1", "managers first", "role_based",
				[]byte(`{"roles": ["manager"]}`), "round_robin", "", true, 1, time.Now()))
	mock.ExpectQuery(`FROM delegations`).
		WithArgs("org-1", "manager-1").
		WillReturnRows(sqlmock.NewRows(delegationColumns()))
	mock.ExpectExec(`INSERT INTO assignment_outcomes`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.Equal(t, []string{"manager-1"}, output.AssigneeIDs)
	assert.Equal(t, "rule-1", output.RuleID)
	assert.Equal(t, "round_robin", output.Strategy)
	assert.False(t, output.Fallback)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_RuleFetchFailureFallsBack(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery(`FROM assignment_rules`).
		WithArgs("org-1", "rt-1").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectQuery(`FROM delegations`).
		WithArgs("org-1", "manager-1").
		WillReturnRows(sqlmock.NewRows(delegationColumns()))
	mock.ExpectExec(`INSERT INTO assignment_outcomes`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := handler.Execute(context.Background(), createTestInput())

	// A rule read failure degrades to role fallback, never a job failure.
	assert.NoError(t, err)
	assert.True(t, output.Fallback)
	assert.Equal(t, []string{"manager-1"}, output.AssigneeIDs)
	assert.Empty(t, output.RuleID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_DelegationRedirect(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery(`FROM assignment_rules`).
		WithArgs("org-1", "rt-1").
		WillReturnRows(sqlmock.NewRows(ruleColumns()))
	mock.ExpectQuery(`FROM delegations`).
		WithArgs("org-1", "manager-1").
		WillReturnRows(sqlmock.NewRows(delegationColumns()).
			AddRow("d1", "org-1", "", "manager-1", "delegate-9", "vacation", time.Now(), nil, true))
	mock.ExpectExec(`INSERT INTO assignment_outcomes`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.Equal(t, []string{"delegate-9"}, output.AssigneeIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_OutcomeWriteFailureTolerated(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery(`FROM assignment_rules`).
		WithArgs("org-1", "rt-1").
		WillReturnRows(sqlmock.NewRows(ruleColumns()))
	mock.ExpectQuery(`FROM delegations`).
		WithArgs("org-1", "manager-1").
		WillReturnRows(sqlmock.NewRows(delegationColumns()))
	mock.ExpectExec(`INSERT INTO assignment_outcomes`).
		WillReturnError(sql.ErrConnDone)

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.Equal(t, []string{"manager-1"}, output.AssigneeIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_EmptyPoolCompletesEmpty(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery(`FROM assignment_rules`).
		WithArgs("org-1", "rt-1").
		WillReturnRows(sqlmock.NewRows(ruleColumns()))

	input := createTestInput()
	input.CandidatePool = nil

	output, err := handler.Execute(context.Background(), input)

	// Routing never fabricates an assignee; the process decides what an
	// empty assignment means.
	assert.NoError(t, err)
	assert.Empty(t, output.AssigneeIDs)
	assert.True(t, output.Fallback)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Validation
// ==========================

func TestHandler_Execute_Validation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Input)
		wantCode errors.ErrorCode
	}{
		{"missing organizationId", func(in *Input) { in.OrganizationID = "" }, errors.ErrCodeOrganizationMissing},
		{"missing requestId", func(in *Input) { in.RequestID = "" }, errors.ErrCodeRequestValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mock := newTestHandler(t)

			input := createTestInput()
			tt.mutate(input)

			output, err := handler.Execute(context.Background(), input)

			assert.Error(t, err)
			assert.Nil(t, output)

			stdErr, ok := err.(*errors.StandardError)
			assert.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.False(t, stdErr.Retryable)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
