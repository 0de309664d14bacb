// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Assignment / routing error codes
const (
	ErrCodeRuleFetchFailed         ErrorCode = "RULE_FETCH_FAILED"
	ErrCodeInvalidRuleConditions   ErrorCode = "INVALID_RULE_CONDITIONS"
	ErrCodeDirectoryLookupFailed   ErrorCode = "DIRECTORY_LOOKUP_FAILED"
	ErrCodeWorkloadReadFailed      ErrorCode = "WORKLOAD_READ_FAILED"
	ErrCodeNoEligibleApprovers     ErrorCode = "NO_ELIGIBLE_APPROVERS"
	ErrCodeOrganizationMissing     ErrorCode = "ORGANIZATION_MISSING"
	ErrCodeRequestValidationFailed ErrorCode = "REQUEST_VALIDATION_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeDelegationInsertFailed ErrorCode = "DELEGATION_INSERT_FAILED"
	ErrCodeDelegationInvalid      ErrorCode = "DELEGATION_INVALID"

	ErrCodeOutcomeInsertFailed           ErrorCode = "OUTCOME_INSERT_FAILED"
	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeOutcomeIndexFailed            ErrorCode = "OUTCOME_INDEX_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewRuleFetchFailedError creates a retryable rule lookup error.
// Callers in the routing path log it and fall back to default roles
// instead of failing the job.
func NewRuleFetchFailedError(orgID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRuleFetchFailed,
		Message:   "Failed to load assignment rules",
		Details:   fmt.Sprintf("organizationId: %s, error: %s", orgID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRuleConditionsError creates a non-retryable conditions error.
func NewInvalidRuleConditionsError(ruleID, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRuleConditions,
		Message:   "Assignment rule conditions failed validation",
		Details:   fmt.Sprintf("ruleId: %s, %s", ruleID, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDirectoryLookupFailedError creates a retryable directory query error.
func NewDirectoryLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDirectoryLookupFailed,
		Message:   "Job role directory lookup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWorkloadReadFailedError creates a retryable workload snapshot error.
func NewWorkloadReadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkloadReadFailed,
		Message:   "Workload snapshot read failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoEligibleApproversError creates a non-retryable empty-result error.
func NewNoEligibleApproversError(orgID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoEligibleApprovers,
		Message:   "No eligible approvers found",
		Details:   fmt.Sprintf("organizationId: %s", orgID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOrganizationMissingError creates a non-retryable input error.
func NewOrganizationMissingError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeOrganizationMissing,
		Message:   "Organization identifier missing from job variables",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequestValidationFailedError creates a non-retryable request input error.
func NewRequestValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestValidationFailed,
		Message:   "Request data validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDelegationInsertFailedError creates a retryable delegation insert error.
func NewDelegationInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDelegationInsertFailed,
		Message:   "Delegation record insert failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDelegationInvalidError creates a non-retryable delegation input error.
func NewDelegationInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDelegationInvalid,
		Message:   "Delegation request is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOutcomeInsertFailedError creates a retryable outcome insert error.
func NewOutcomeInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOutcomeInsertFailed,
		Message:   "Assignment outcome insert failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewOutcomeIndexFailedError creates a retryable outcome indexing error.
func NewOutcomeIndexFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOutcomeIndexFailed,
		Message:   "Assignment outcome indexing failed",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (same as internal).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeRuleFetchFailed:               "RULE_FETCH_FAILED",
	ErrCodeInvalidRuleConditions:         "INVALID_RULE_CONDITIONS",
	ErrCodeDirectoryLookupFailed:         "DIRECTORY_LOOKUP_FAILED",
	ErrCodeWorkloadReadFailed:            "WORKLOAD_READ_FAILED",
	ErrCodeNoEligibleApprovers:           "NO_ELIGIBLE_APPROVERS",
	ErrCodeOrganizationMissing:           "ORGANIZATION_MISSING",
	ErrCodeRequestValidationFailed:       "REQUEST_VALIDATION_FAILED",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeDatabaseInsertFailed:          "DATABASE_INSERT_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeDelegationInsertFailed:        "DELEGATION_INSERT_FAILED",
	ErrCodeDelegationInvalid:             "DELEGATION_INVALID",
	ErrCodeOutcomeInsertFailed:           "OUTCOME_INSERT_FAILED",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeOutcomeIndexFailed:            "OUTCOME_INDEX_FAILED",
	ErrCodeNotificationSendFailed:        "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeRuleFetchFailed,
		ErrCodeDirectoryLookupFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeDelegationInsertFailed,
		ErrCodeOutcomeInsertFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeOutcomeIndexFailed,
		ErrCodeNotificationSendFailed:
		return 3 // Retryable technical errors

	case ErrCodeWorkloadReadFailed,
		ErrCodeQueryTimeout:
		return 2 // Partial retry for timeouts and cache misses

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "RULE"):
		return "RULES"
	case strings.Contains(codeStr, "DELEGATION"):
		return "DELEGATION"
	case strings.Contains(codeStr, "WORKLOAD") || strings.Contains(codeStr, "DIRECTORY") || strings.Contains(codeStr, "APPROVER"):
		return "ROUTING"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "MISSING"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
