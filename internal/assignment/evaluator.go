// internal/assignment/evaluator.go
package assignment

import (
	"context"

	"routing-workers/internal/common/config"
	"routing-workers/internal/common/database"
	"routing-workers/internal/common/logger"
	"routing-workers/internal/models"
)

// RuleSource loads the active rules for one (organization, request type).
type RuleSource interface {
	ActiveRules(ctx context.Context, org OrgContext, requestTypeID string) ([]models.AssignmentRule, error)
}

// CandidateFilter narrows a candidate pool for one rule.
type CandidateFilter interface {
	Apply(ctx context.Context, org OrgContext, ruleType string, cond models.RuleConditions, pool []models.CandidateUser, reqCtx models.RequestContext) []models.CandidateUser
}

// StrategySelector picks the final assignee(s) from a filtered set.
type StrategySelector interface {
	Select(ctx context.Context, org OrgContext, strategy string, candidates []models.CandidateUser, cond models.RuleConditions, reqCtx models.RequestContext) []models.CandidateUser
}

var defaultFallbackRoles = []string{"manager", "admin", "superadmin"}

// Result is one routing decision.
type Result struct {
	Assignees []models.CandidateUser `json:"assignees"`
	RuleID    string                 `json:"ruleId,omitempty"`
	Strategy  string                 `json:"strategy,omitempty"`
	Fallback  bool                   `json:"fallback"`
}

// Engine evaluates assignment rules in priority order, first match
// wins. Read failures and malformed rules degrade to the default role
// fallback; routing never returns an error to the caller.
type Engine struct {
	rules         RuleSource
	filters       CandidateFilter
	selector      StrategySelector
	fallbackRoles []string
	log           logger.Logger
}

func NewEngine(rules RuleSource, filters CandidateFilter, selector StrategySelector, fallbackRoles []string, log logger.Logger) *Engine {
	if len(fallbackRoles) == 0 {
		fallbackRoles = defaultFallbackRoles
	}
	return &Engine{
		rules:         rules,
		filters:       filters,
		selector:      selector,
		fallbackRoles: fallbackRoles,
		log:           log,
	}
}

// EvaluateAssignmentRules returns the chosen assignee(s) for one
// request submission.
func (e *Engine) EvaluateAssignmentRules(ctx context.Context, org OrgContext, requestTypeID string, reqCtx models.RequestContext, pool []models.CandidateUser) []models.CandidateUser {
	return e.Route(ctx, org, requestTypeID, reqCtx, pool).Assignees
}

// Route is EvaluateAssignmentRules plus the decision metadata the audit
// trail records (winning rule, strategy, fallback flag).
func (e *Engine) Route(ctx context.Context, org OrgContext, requestTypeID string, reqCtx models.RequestContext, pool []models.CandidateUser) Result {
	rules, err := e.rules.ActiveRules(ctx, org, requestTypeID)
	if err != nil {
		e.log.Warn("rule fetch failed, using default fallback", map[string]interface{}{
			"organizationId": org.OrganizationID,
			"requestTypeId":  requestTypeID,
			"error":          err.Error(),
		})
		return e.fallback(org, pool)
	}

	for _, rule := range rules {
		cond, err := DecodeConditions(rule.RuleType, rule.Conditions)
		if err != nil {
			e.log.Warn("rule conditions invalid, rule yields no candidates", map[string]interface{}{
				"organizationId": org.OrganizationID,
				"ruleId":         rule.ID,
				"ruleType":       rule.RuleType,
				"error":          err.Error(),
			})
			continue
		}

		candidates := e.filters.Apply(ctx, org, rule.RuleType, cond, pool, reqCtx)
		if len(candidates) == 0 {
			continue
		}

		// First rule with any candidate wins; lower-priority rules are
		// never consulted.
		selected := e.selector.Select(ctx, org, rule.Strategy, candidates, cond, reqCtx)
		if len(selected) == 0 {
			selected = candidates[:1]
		}
		return Result{Assignees: selected, RuleID: rule.ID, Strategy: rule.Strategy}
	}

	return e.fallback(org, pool)
}

// fallback keeps pool members whose role is in the configured fallback
// set. An empty result is propagated as-is; the engine never fabricates
// an assignee.
func (e *Engine) fallback(org OrgContext, pool []models.CandidateUser) Result {
	allowed := toSet(e.fallbackRoles)
	var out []models.CandidateUser
	for _, u := range pool {
		if u.OrganizationID == org.OrganizationID && allowed[u.Role] {
			out = append(out, u)
		}
	}
	return Result{Assignees: out, Fallback: true}
}

// Routing bundles the engine with its collaborators, wired against the
// shared store and cache.
type Routing struct {
	Engine    *Engine
	Ledger    *Ledger
	Directory *Directory
	Workloads *SnapshotProvider
}

func NewRouting(store *Store, cache *database.RedisClient, cfg config.AssignmentConfig, log logger.Logger) *Routing {
	workloads := NewSnapshotProvider(store, cache, config.GetDuration(cfg.WorkloadCacheTTL), log)
	directory := NewDirectory(store, workloads, log)
	filters := NewFilterChain(store, log)
	selector := NewSelector(workloads, directory, log)

	return &Routing{
		Engine:    NewEngine(store, filters, selector, cfg.FallbackRoles, log),
		Ledger:    NewLedger(store, log),
		Directory: directory,
		Workloads: workloads,
	}
}
