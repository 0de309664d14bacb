// internal/assignment/helpers_test.go
package assignment

import (
	"context"
	"database/sql"
	"testing"

	"routing-workers/internal/common/logger"
	"routing-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
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

func setupRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	t.Cleanup(mr.Close)

	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func testOrg() OrgContext {
	return OrgContext{OrganizationID: "org-1", RequesterID: "requester-1"}
}

func user(id, orgID, role string) models.CandidateUser {
	return models.CandidateUser{ID: id, OrganizationID: orgID, Role: role}
}

func rawRule(id string, priority int, ruleType, strategy, conditions string) models.AssignmentRule {
	return models.AssignmentRule{
		ID:             id,
		OrganizationID: "org-1",
		RequestTypeID:  "rt-1",
		RuleType:       ruleType,
		Strategy:       strategy,
		Conditions:     []byte(conditions),
		Active:         true,
		Priority:       priority,
	}
}

func newLog(t *testing.T) logger.Logger {
	return logger.NewTestLogger(t)
}

// ==========================
// Stub Collaborators
// ==========================

type stubRules struct {
	rules []models.AssignmentRule
	err   error
}

func (s *stubRules) ActiveRules(ctx context.Context, org OrgContext, requestTypeID string) ([]models.AssignmentRule, error) {
	return s.rules, s.err
}

type stubMembership struct {
	jobRoleUserIDs []string
	teamUserIDs    []string
	err            error
}

func (s *stubMembership) UserIDsByJobRoleNames(ctx context.Context, org OrgContext, names []string) ([]string, error) {
	return s.jobRoleUserIDs, s.err
}

func (s *stubMembership) TeamMemberIDs(ctx context.Context, org OrgContext, teamIDs []string) ([]string, error) {
	return s.teamUserIDs, s.err
}

type stubWorkloads struct {
	snap models.WorkloadSnapshot
}

func (s *stubWorkloads) Snapshot(ctx context.Context, org OrgContext) models.WorkloadSnapshot {
	if s.snap == nil {
		return models.WorkloadSnapshot{}
	}
	return s.snap
}

type stubMembers struct {
	rows []MemberRow
	err  error
}

func (s *stubMembers) JobRoleMembers(ctx context.Context, org OrgContext, jobRoleIDs []string) ([]MemberRow, error) {
	return s.rows, s.err
}

type stubFinder struct {
	result []models.CandidateUser
	calls  int
}

func (s *stubFinder) FindOptimalAssignees(ctx context.Context, org OrgContext, reqCtx models.RequestContext, jobRoleIDs []string, opts AssigneeOptions) []models.CandidateUser {
	s.calls++
	return s.result
}

// countingFilter wraps a filter and counts invocations.
type countingFilter struct {
	inner CandidateFilter
	calls int
}

func (c *countingFilter) Apply(ctx context.Context, org OrgContext, ruleType string, cond models.RuleConditions, pool []models.CandidateUser, reqCtx models.RequestContext) []models.CandidateUser {
	c.calls++
	return c.inner.Apply(ctx, org, ruleType, cond, pool, reqCtx)
}

func newTestEngine(t *testing.T, rules RuleSource, directory MembershipSource) (*Engine, *countingFilter) {
	log := newLog(t)
	filter := &countingFilter{inner: NewFilterChain(directory, log)}
	selector := NewSelector(&stubWorkloads{}, &stubFinder{}, log)
	return NewEngine(rules, filter, selector, nil, log), filter
}
