// internal/assignment/conditions.go
package assignment

import (
	"encoding/json"
	"fmt"

	"routing-workers/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// Per-rule-type JSON schemas for the conditions document. A document
// that fails its schema makes the rule yield zero candidates.
var conditionSchemas = map[string]string{
	models.RuleTypeRoleBased: `{
		"type": "object",
		"properties": {
			"roles": {"type": "array", "items": {"type": "string"}, "minItems": 1}
		},
		"required": ["roles"]
	}`,
	models.RuleTypeJobRoleBased: `{
		"type": "object",
		"properties": {
			"job_roles": {"type": "array", "items": {"type": "string"}, "minItems": 1},
			"expertise_required": {"type": "array", "items": {"type": "string"}}
		},
		"required": ["job_roles"]
	}`,
	models.RuleTypeTeamHierarchy: `{
		"type": "object",
		"properties": {
			"team_ids": {"type": "array", "items": {"type": "string"}, "minItems": 1}
		},
		"required": ["team_ids"]
	}`,
	models.RuleTypeCustom: `{
		"type": "object",
		"properties": {
			"predicates": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "object",
					"properties": {
						"type": {"type": "string", "enum": ["amount_threshold", "priority_equals"]},
						"field": {"type": "string"},
						"op": {"type": "string", "enum": ["gt", "gte", "lt", "lte", "eq"]},
						"value": {"type": "number"},
						"priority": {"type": "string"}
					},
					"required": ["type"]
				}
			}
		},
		"required": ["predicates"]
	}`,
}

// DecodeConditions validates a raw conditions document against the
// schema for its rule type and decodes it into typed form.
func DecodeConditions(ruleType string, raw json.RawMessage) (models.RuleConditions, error) {
	var cond models.RuleConditions

	schema, ok := conditionSchemas[ruleType]
	if !ok {
		return cond, fmt.Errorf("unknown rule type %q", ruleType)
	}
	if len(raw) == 0 {
		return cond, fmt.Errorf("conditions document is empty")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return cond, fmt.Errorf("conditions validation: %w", err)
	}
	if !result.Valid() {
		return cond, fmt.Errorf("conditions failed schema: %v", result.Errors())
	}

	if err := json.Unmarshal(raw, &cond); err != nil {
		return cond, fmt.Errorf("decode conditions: %w", err)
	}
	return cond, nil
}
