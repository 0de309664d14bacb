// internal/assignment/jobroles.go
package assignment

import (
	"context"
	"sort"

	"routing-workers/internal/common/logger"
	"routing-workers/internal/models"
)

// DirectorySource reads (user, jobRole, isPrimary) rows.
type DirectorySource interface {
	JobRoleMembers(ctx context.Context, org OrgContext, jobRoleIDs []string) ([]MemberRow, error)
}

// WorkloadReader serves workload snapshots; failures surface as an
// empty snapshot, never as an error.
type WorkloadReader interface {
	Snapshot(ctx context.Context, org OrgContext) models.WorkloadSnapshot
}

// AssigneeOptions tune the optimal-assignee search.
type AssigneeOptions struct {
	ConsiderWorkload     bool
	ExpertiseRequired    []string
	GeographicPreference bool
	MaxAssignees         int
}

// Directory resolves job-role holders and runs the optimal-assignee
// search over them.
type Directory struct {
	source    DirectorySource
	workloads WorkloadReader
	log       logger.Logger
}

func NewDirectory(source DirectorySource, workloads WorkloadReader, log logger.Logger) *Directory {
	return &Directory{source: source, workloads: workloads, log: log}
}

// FindOptimalAssignees resolves holders of the given job roles and
// ranks them. Expertise is a hard filter; location is a soft preference
// that never narrows to zero; primary-role status dominates workload in
// the final order. Returns nil when no directory rows match.
func (d *Directory) FindOptimalAssignees(ctx context.Context, org OrgContext, reqCtx models.RequestContext, jobRoleIDs []string, opts AssigneeOptions) []models.CandidateUser {
	if len(jobRoleIDs) == 0 {
		return nil
	}

	rows, err := d.source.JobRoleMembers(ctx, org, jobRoleIDs)
	if err != nil {
		d.log.Warn("job role directory read failed", map[string]interface{}{
			"organizationId": org.OrganizationID,
			"error":          err.Error(),
		})
		return nil
	}

	// Collapse rows to one candidate per user; a user is primary if any
	// of the target roles is primary for them.
	type entry struct {
		user    models.CandidateUser
		primary bool
	}
	byID := make(map[string]*entry)
	var order []string
	for _, r := range rows {
		if r.User.OrganizationID != org.OrganizationID {
			continue
		}
		e, ok := byID[r.User.ID]
		if !ok {
			u := r.User
			u.JobRoles = nil
			e = &entry{user: u}
			byID[r.User.ID] = e
			order = append(order, r.User.ID)
		}
		e.user.JobRoles = append(e.user.JobRoles, r.JobRoleID)
		if r.IsPrimary {
			e.primary = true
			if e.user.PrimaryJobRole == "" {
				e.user.PrimaryJobRole = r.JobRoleID
			}
		}
	}

	candidates := make([]entry, 0, len(order))
	for _, id := range order {
		candidates = append(candidates, *byID[id])
	}

	if len(opts.ExpertiseRequired) > 0 {
		var kept []entry
		for _, c := range candidates {
			if intersects(c.user.ExpertiseTags, opts.ExpertiseRequired) {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}

	// Soft location preference: only narrow when at least one candidate
	// is at the request's location.
	if opts.GeographicPreference && reqCtx.Location != "" {
		var local []entry
		for _, c := range candidates {
			if c.user.Location == reqCtx.Location {
				local = append(local, c)
			}
		}
		if len(local) > 0 {
			candidates = local
		}
	}

	if opts.ConsiderWorkload {
		snapshot := d.workloads.Snapshot(ctx, org)
		sort.SliceStable(candidates, func(i, j int) bool {
			return snapshot.ScoreFor(candidates[i].user.ID) < snapshot.ScoreFor(candidates[j].user.ID)
		})
	}

	// Primary status is the dominant key; the stable sort preserves the
	// workload order within each partition.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].primary && !candidates[j].primary
	})

	if opts.MaxAssignees > 0 && len(candidates) > opts.MaxAssignees {
		candidates = candidates[:opts.MaxAssignees]
	}

	out := make([]models.CandidateUser, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.user)
	}
	return out
}

// intersects reports whether the two tag sets share any element.
func intersects(a, b []string) bool {
	set := toSet(a)
	for _, v := range b {
		if set[v] {
			return true
		}
	}
	return false
}
