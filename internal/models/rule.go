package models

import (
	"encoding/json"
	"time"
)

// Rule types
const (
	RuleTypeRoleBased     = "role_based"
	RuleTypeJobRoleBased  = "job_role_based"
	RuleTypeTeamHierarchy = "team_hierarchy"
	RuleTypeCustom        = "custom"
)

// Strategies
const (
	StrategyRoundRobin     = "round_robin"
	StrategyLeastLoaded    = "least_loaded"
	StrategyExpertiseBased = "expertise_based"
	StrategyJobRoleBased   = "job_role_based"
	StrategyRandom         = "random"
)

// AssignmentRule is one org-defined routing rule. Conditions stay raw
// until the filter chain decodes them; a document that fails schema
// validation makes the rule yield zero candidates.
type AssignmentRule struct {
	ID               string          `json:"id"`
	OrganizationID   string          `json:"organizationId"`
	RequestTypeID    string          `json:"requestTypeId"`
	Name             string          `json:"name"`
	RuleType         string          `json:"ruleType"`
	Conditions       json.RawMessage `json:"conditions"`
	Strategy         string          `json:"strategy"`
	EscalationPolicy string          `json:"escalationPolicy,omitempty"`
	Active           bool            `json:"active"`
	Priority         int             `json:"priority"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// RuleConditions is the typed form of a rule's conditions document.
type RuleConditions struct {
	Roles             []string          `json:"roles,omitempty"`
	JobRoles          []string          `json:"job_roles,omitempty"`
	TeamIDs           []string          `json:"team_ids,omitempty"`
	Predicates        []CustomPredicate `json:"predicates,omitempty"`
	ExpertiseRequired []string          `json:"expertise_required,omitempty"`
}

// Custom predicate variants
const (
	PredicateAmountThreshold = "amount_threshold"
	PredicatePriorityEquals  = "priority_equals"
)

// CustomPredicate is a tagged predicate variant for `custom` rules.
// Only amount_threshold and priority_equals exist; there is no
// free-text logic evaluation.
type CustomPredicate struct {
	Type     string  `json:"type"`
	Field    string  `json:"field,omitempty"`    // amount_threshold: context field name
	Op       string  `json:"op,omitempty"`       // amount_threshold: gt|gte|lt|lte|eq
	Value    float64 `json:"value,omitempty"`    // amount_threshold
	Priority string  `json:"priority,omitempty"` // priority_equals
}
