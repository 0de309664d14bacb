// internal/workers/assignment/create-delegation/handler_test.go
package createdelegation

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"routing-workers/internal/assignment"
	"routing-workers/internal/common/logger"

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
	return NewHandler(LoadConfig(), assignment.NewLedger(store, log), log), mock
}

func createTestInput() *Input {
	return &Input{
		OrganizationID:     "org-1",
		RequesterID:        "requester-1",
		RequestID:          "req-1",
		OriginalApproverID: "approver-a",
		DelegateApproverID: "approver-b",
		Reason:             "vacation",
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectExec(`INSERT INTO delegations`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO assignment_outcomes`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.True(t, output.DelegationCreated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_FutureExpiry(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectExec(`INSERT INTO delegations`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO assignment_outcomes`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	input := createTestInput()
	input.ExpiresAt = time.Now().Add(48 * time.Hour).Format(time.RFC3339)

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.True(t, output.DelegationCreated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_PersistenceFailureReturnsFalse(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectExec(`INSERT INTO delegations`).
		WillReturnError(sql.ErrConnDone)

	// The workflow branches on the flag; a storage failure is not a job
	// failure.
	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.False(t, output.DelegationCreated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Validation
// ==========================

func TestHandler_Execute_InvalidInputReturnsFalse(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"self delegation", func(in *Input) { in.DelegateApproverID = in.OriginalApproverID }},
		{"missing delegate", func(in *Input) { in.DelegateApproverID = "" }},
		{"missing original approver", func(in *Input) { in.OriginalApproverID = "" }},
		{"expiry in the past", func(in *Input) {
			in.ExpiresAt = time.Now().Add(-time.Hour).Format(time.RFC3339)
		}},
		{"unparseable expiry", func(in *Input) { in.ExpiresAt = "next tuesday" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mock := newTestHandler(t)

			input := createTestInput()
			tt.mutate(input)

			output, err := handler.Execute(context.Background(), input)

			assert.NoError(t, err)
			assert.False(t, output.DelegationCreated)
			// Nothing reaches the store.
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_MissingOrganizationFails(t *testing.T) {
	handler, mock := newTestHandler(t)

	input := createTestInput()
	input.OrganizationID = ""

	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.Nil(t, output)
	assert.NoError(t, mock.ExpectationsWereMet())
}
