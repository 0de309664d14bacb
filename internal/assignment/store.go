// internal/assignment/store.go
package assignment

import (
	"context"
	"database/sql"
	"fmt"

	"routing-workers/internal/common/database"
	"routing-workers/internal/common/logger"
	"routing-workers/internal/models"

	"github.com/lib/pq"
)

// MemberRow is one directory row joining a user to a job role.
type MemberRow struct {
	User      models.CandidateUser
	JobRoleID string
	IsPrimary bool
}

// Store is the single query boundary between the routing engine and
// PostgreSQL. Rows are decoded into typed records here; a row that does
// not scan cleanly fails the whole read and callers degrade.
type Store struct {
	db  *sql.DB
	log logger.Logger
}

func NewStore(client *database.PostgresClient, log logger.Logger) *Store {
	return &Store{db: client.DB, log: log}
}

// NewStoreFromDB wraps a raw *sql.DB (used by tests with sqlmock).
func NewStoreFromDB(db *sql.DB, log logger.Logger) *Store {
	return &Store{db: db, log: log}
}

// ActiveRules returns the active rules for (organization, request type)
// in evaluation order: priority ascending, ties broken by created_at
// then id so the order is stable.
func (s *Store) ActiveRules(ctx context.Context, org OrgContext, requestTypeID string) ([]models.AssignmentRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, organization_id, request_type_id, name, rule_type,
		       conditions, strategy, COALESCE(escalation_policy, ''), active, priority, created_at
		FROM assignment_rules
		WHERE organization_id = $1 AND request_type_id = $2 AND active = true
		ORDER BY priority ASC, created_at ASC, id ASC`,
		org.OrganizationID, requestTypeID)
	if err != nil {
		return nil, fmt.Errorf("query assignment rules: %w", err)
	}
	defer rows.Close()

	var rules []models.AssignmentRule
	for rows.Next() {
		var r models.AssignmentRule
		var conditions []byte
		if err := rows.Scan(
			&r.ID, &r.OrganizationID, &r.RequestTypeID, &r.Name, &r.RuleType,
			&conditions, &r.Strategy, &r.EscalationPolicy, &r.Active, &r.Priority, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan assignment rule: %w", err)
		}
		r.Conditions = conditions
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// UserIDsByJobRoleNames resolves job role names to the ids of users
// holding them, scoped to the organization.
func (s *Store) UserIDsByJobRoleNames(ctx context.Context, org OrgContext, names []string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ujr.user_id
		FROM user_job_roles ujr
		JOIN job_roles jr ON jr.id = ujr.job_role_id
		WHERE jr.organization_id = $1 AND jr.name = ANY($2)`,
		org.OrganizationID, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("query job role members: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan job role member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TeamMemberIDs resolves team ids to member user ids, scoped to the
// organization.
func (s *Store) TeamMemberIDs(ctx context.Context, org OrgContext, teamIDs []string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT tm.user_id
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		WHERE t.organization_id = $1 AND tm.team_id = ANY($2)`,
		org.OrganizationID, pq.Array(teamIDs))
	if err != nil {
		return nil, fmt.Errorf("query team members: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// JobRoleMembers returns (user, jobRole, isPrimary) rows for the given
// job role ids, scoped to the organization.
func (s *Store) JobRoleMembers(ctx context.Context, org OrgContext, jobRoleIDs []string) ([]MemberRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.organization_id, u.role, COALESCE(u.location, ''),
		       u.expertise_tags, ujr.job_role_id, ujr.is_primary
		FROM users u
		JOIN user_job_roles ujr ON ujr.user_id = u.id
		WHERE u.organization_id = $1 AND ujr.job_role_id = ANY($2)`,
		org.OrganizationID, pq.Array(jobRoleIDs))
	if err != nil {
		return nil, fmt.Errorf("query job role directory: %w", err)
	}
	defer rows.Close()

	var members []MemberRow
	for rows.Next() {
		var m MemberRow
		var tags pq.StringArray
		if err := rows.Scan(
			&m.User.ID, &m.User.OrganizationID, &m.User.Role, &m.User.Location,
			&tags, &m.JobRoleID, &m.IsPrimary,
		); err != nil {
			return nil, fmt.Errorf("scan job role directory row: %w", err)
		}
		m.User.ExpertiseTags = tags
		members = append(members, m)
	}
	return members, rows.Err()
}

// Workloads returns the per-approver workload aggregates for the
// organization.
func (s *Store) Workloads(ctx context.Context, org OrgContext) ([]models.ApproverWorkload, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT approver_id, active_request_count, pending_count, COALESCE(avg_pending_hours, 0)
		FROM approver_workloads
		WHERE organization_id = $1`,
		org.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("query approver workloads: %w", err)
	}
	defer rows.Close()

	var workloads []models.ApproverWorkload
	for rows.Next() {
		var w models.ApproverWorkload
		if err := rows.Scan(&w.ApproverID, &w.ActiveRequestCount, &w.PendingCount, &w.AvgPendingHours); err != nil {
			return nil, fmt.Errorf("scan approver workload: %w", err)
		}
		workloads = append(workloads, w)
	}
	return workloads, rows.Err()
}

// InsertDelegation appends one delegation row.
func (s *Store) InsertDelegation(ctx context.Context, d models.Delegation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO delegations
			(id, organization_id, request_id, original_approver_id, delegate_approver_id,
			 reason, created_at, expires_at, active)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), $7, $8, $9)`,
		d.ID, d.OrganizationID, d.RequestID, d.OriginalApproverID, d.DelegateApproverID,
		d.Reason, d.CreatedAt, d.ExpiresAt, d.Active)
	if err != nil {
		return fmt.Errorf("insert delegation: %w", err)
	}
	return nil
}

// InsertOutcome appends one assignment outcome audit row.
func (s *Store) InsertOutcome(ctx context.Context, o models.AssignmentOutcome) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assignment_outcomes
			(id, organization_id, request_id, rule_id, approver_id, job_role_id,
			 strategy, fallback, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)`,
		o.ID, o.OrganizationID, o.RequestID, o.RuleID, o.ApproverID, o.JobRoleID,
		o.Strategy, o.Fallback, o.Timestamp)
	if err != nil {
		return fmt.Errorf("insert assignment outcome: %w", err)
	}
	return nil
}

// ActiveDelegations returns rows flagged active for the approver,
// org-scoped. Expiry is not filtered here; readers decide staleness.
func (s *Store) ActiveDelegations(ctx context.Context, org OrgContext, approverID string) ([]models.Delegation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, organization_id, COALESCE(request_id, ''), original_approver_id,
		       delegate_approver_id, COALESCE(reason, ''), created_at, expires_at, active
		FROM delegations
		WHERE organization_id = $1 AND original_approver_id = $2 AND active = true
		ORDER BY created_at DESC`,
		org.OrganizationID, approverID)
	if err != nil {
		return nil, fmt.Errorf("query delegations: %w", err)
	}
	defer rows.Close()

	var delegations []models.Delegation
	for rows.Next() {
		var d models.Delegation
		if err := rows.Scan(
			&d.ID, &d.OrganizationID, &d.RequestID, &d.OriginalApproverID,
			&d.DelegateApproverID, &d.Reason, &d.CreatedAt, &d.ExpiresAt, &d.Active,
		); err != nil {
			return nil, fmt.Errorf("scan delegation: %w", err)
		}
		delegations = append(delegations, d)
	}
	return delegations, rows.Err()
}
