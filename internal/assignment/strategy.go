// internal/assignment/strategy.go
package assignment

import (
	"context"
	"math/rand"
	"sort"

	"routing-workers/internal/common/logger"
	"routing-workers/internal/models"
)

// OptimalAssigneeFinder runs the job-role-directory-aware search.
type OptimalAssigneeFinder interface {
	FindOptimalAssignees(ctx context.Context, org OrgContext, reqCtx models.RequestContext, jobRoleIDs []string, opts AssigneeOptions) []models.CandidateUser
}

// Selector applies a named strategy to a non-empty candidate set.
// Workload-aware branches tolerate snapshot failure (an empty snapshot
// scores everyone zero, preserving the incoming order).
type Selector struct {
	workloads WorkloadReader
	directory OptimalAssigneeFinder
	randInt   func(n int) int
	log       logger.Logger
}

func NewSelector(workloads WorkloadReader, directory OptimalAssigneeFinder, log logger.Logger) *Selector {
	return &Selector{
		workloads: workloads,
		directory: directory,
		randInt:   rand.Intn,
		log:       log,
	}
}

// Select returns the chosen assignee(s). Always non-empty for a
// non-empty input; unknown strategies take the first candidate.
func (s *Selector) Select(ctx context.Context, org OrgContext, strategy string, candidates []models.CandidateUser, cond models.RuleConditions, reqCtx models.RequestContext) []models.CandidateUser {
	if len(candidates) == 0 {
		return nil
	}

	switch strategy {
	case models.StrategyRoundRobin:
		// Stateless approximation: deterministic id order, take first.
		sorted := append([]models.CandidateUser(nil), candidates...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
		return sorted[:1]

	case models.StrategyLeastLoaded:
		snapshot := s.workloads.Snapshot(ctx, org)
		sorted := append([]models.CandidateUser(nil), candidates...)
		sort.SliceStable(sorted, func(i, j int) bool {
			si, sj := snapshot.ScoreFor(sorted[i].ID), snapshot.ScoreFor(sorted[j].ID)
			if si != sj {
				return si < sj
			}
			pi, pj := sorted[i].PrimaryJobRole != "", sorted[j].PrimaryJobRole != ""
			if pi != pj {
				return pi
			}
			return sorted[i].ID < sorted[j].ID
		})
		return sorted[:1]

	case models.StrategyExpertiseBased:
		required := cond.ExpertiseRequired
		if len(required) == 0 {
			return candidates
		}
		var matched []models.CandidateUser
		for _, u := range candidates {
			if intersects(u.ExpertiseTags, required) {
				matched = append(matched, u)
			}
		}
		if len(matched) == 0 {
			// Never block assignment purely for a missing expertise match.
			return candidates
		}
		return matched

	case models.StrategyJobRoleBased:
		if len(reqCtx.DefaultJobRoles) > 0 {
			optimal := s.directory.FindOptimalAssignees(ctx, org, reqCtx, reqCtx.DefaultJobRoles, AssigneeOptions{
				ConsiderWorkload:     reqCtx.ConsiderWorkload,
				ExpertiseRequired:    reqCtx.ExpertiseTags,
				GeographicPreference: true,
				MaxAssignees:         1,
			})
			if len(optimal) > 0 {
				return optimal
			}
		}
		return candidates[:1]

	case models.StrategyRandom:
		return []models.CandidateUser{candidates[s.randInt(len(candidates))]}

	default:
		return candidates[:1]
	}
}
