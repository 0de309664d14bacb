// internal/assignment/filter.go
package assignment

import (
	"context"

	"routing-workers/internal/common/logger"
	"routing-workers/internal/models"
)

// MembershipSource resolves job-role and team membership to user ids.
type MembershipSource interface {
	UserIDsByJobRoleNames(ctx context.Context, org OrgContext, names []string) ([]string, error)
	TeamMemberIDs(ctx context.Context, org OrgContext, teamIDs []string) ([]string, error)
}

// Roles a matched custom predicate restricts candidates to.
var escalationRoles = map[string]bool{
	"admin":      true,
	"superadmin": true,
}

// FilterChain narrows a candidate pool per rule type. Every branch ends
// with the organization-isolation intersection; no filter may return a
// user from a different organization.
type FilterChain struct {
	directory MembershipSource
	log       logger.Logger
}

func NewFilterChain(directory MembershipSource, log logger.Logger) *FilterChain {
	return &FilterChain{directory: directory, log: log}
}

// Apply narrows pool using the rule's typed conditions. Lookup failures
// and missing condition fields yield an empty set so the evaluator
// falls through to the next rule.
func (f *FilterChain) Apply(ctx context.Context, org OrgContext, ruleType string, cond models.RuleConditions, pool []models.CandidateUser, reqCtx models.RequestContext) []models.CandidateUser {
	var result []models.CandidateUser

	switch ruleType {
	case models.RuleTypeRoleBased:
		if len(cond.Roles) == 0 {
			return nil
		}
		allowed := toSet(cond.Roles)
		for _, u := range pool {
			if allowed[u.Role] {
				result = append(result, u)
			}
		}

	case models.RuleTypeJobRoleBased:
		if len(cond.JobRoles) == 0 {
			return nil
		}
		ids, err := f.directory.UserIDsByJobRoleNames(ctx, org, cond.JobRoles)
		if err != nil {
			f.log.Warn("job role lookup failed, rule yields no candidates", map[string]interface{}{
				"organizationId": org.OrganizationID,
				"error":          err.Error(),
			})
			return nil
		}
		idSet := toSet(ids)
		for _, u := range pool {
			if idSet[u.ID] {
				result = append(result, u)
			}
		}

	case models.RuleTypeTeamHierarchy:
		if len(cond.TeamIDs) == 0 {
			return nil
		}
		ids, err := f.directory.TeamMemberIDs(ctx, org, cond.TeamIDs)
		if err != nil {
			f.log.Warn("team membership lookup failed, rule yields no candidates", map[string]interface{}{
				"organizationId": org.OrganizationID,
				"error":          err.Error(),
			})
			return nil
		}
		idSet := toSet(ids)
		for _, u := range pool {
			if idSet[u.ID] {
				result = append(result, u)
			}
		}

	case models.RuleTypeCustom:
		if len(cond.Predicates) == 0 {
			return nil
		}
		matched := false
		for _, p := range cond.Predicates {
			if predicateMatches(p, reqCtx) {
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}
		for _, u := range pool {
			if escalationRoles[u.Role] {
				result = append(result, u)
			}
		}

	default:
		return nil
	}

	return sameOrganization(org, result)
}

// predicateMatches evaluates one tagged predicate against the request.
// Unknown types and operators never match.
func predicateMatches(p models.CustomPredicate, reqCtx models.RequestContext) bool {
	switch p.Type {
	case models.PredicateAmountThreshold:
		if p.Field != "" && p.Field != "amount" {
			return false
		}
		switch p.Op {
		case "gt":
			return reqCtx.Amount > p.Value
		case "gte":
			return reqCtx.Amount >= p.Value
		case "lt":
			return reqCtx.Amount < p.Value
		case "lte":
			return reqCtx.Amount <= p.Value
		case "eq":
			return reqCtx.Amount == p.Value
		default:
			return false
		}
	case models.PredicatePriorityEquals:
		return p.Priority != "" && reqCtx.Priority == p.Priority
	default:
		return false
	}
}

// sameOrganization drops any candidate outside the caller's tenant.
func sameOrganization(org OrgContext, users []models.CandidateUser) []models.CandidateUser {
	var out []models.CandidateUser
	for _, u := range users {
		if u.OrganizationID == org.OrganizationID {
			out = append(out, u)
		}
	}
	return out
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
