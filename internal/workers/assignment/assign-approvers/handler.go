// internal/workers/assignment/assign-approvers/handler.go
package assignapprovers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"routing-workers/internal/assignment"
	"routing-workers/internal/common/errors"
	"routing-workers/internal/common/logger"
	"routing-workers/internal/common/observability"
	"routing-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "assign-approvers"
)

// OutcomeRecorder persists the audit row written once per assignee.
type OutcomeRecorder interface {
	InsertOutcome(ctx context.Context, o models.AssignmentOutcome) error
}

type Handler struct {
	config   *Config
	routing  *assignment.Routing
	outcomes OutcomeRecorder
	obs      *observability.Observability
	logger   logger.Logger
}

func NewHandler(config *Config, routing *assignment.Routing, outcomes OutcomeRecorder, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		routing:  routing,
		outcomes: outcomes,
		obs:      obs,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, &errors.StandardError{
			Code:      "INPUT_PARSING_FAILED",
			Message:   "Failed to parse job variables",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.OrganizationID == "" {
		return nil, errors.NewOrganizationMissingError("organizationId is required")
	}
	if input.RequestID == "" {
		return nil, errors.NewRequestValidationFailedError("requestId is required")
	}

	org := assignment.OrgContext{
		OrganizationID: input.OrganizationID,
		RequesterID:    input.RequesterID,
	}
	reqCtx := models.RequestContext{
		RequestID:        input.RequestID,
		Priority:         input.Priority,
		Amount:           input.Amount,
		Location:         input.Location,
		DefaultJobRoles:  input.DefaultJobRoles,
		ExpertiseTags:    input.ExpertiseTags,
		ConsiderWorkload: input.ConsiderWorkload,
	}

	start := time.Now()
	result := h.routing.Engine.Route(ctx, org, input.RequestTypeID, reqCtx, input.CandidatePool)
	if h.obs != nil {
		h.obs.RecordAssignment(ctx, result.Strategy, result.Fallback)
		h.obs.RecordAssignmentDuration(ctx, time.Since(start), result.Strategy)
	}

	assigneeIDs := make([]string, 0, len(result.Assignees))
	for _, assignee := range result.Assignees {
		finalID := h.routing.Ledger.ResolveDelegate(ctx, org, assignee.ID)
		assigneeIDs = append(assigneeIDs, finalID)
		h.recordOutcome(ctx, input, result, assignee, finalID)
	}

	h.logger.Info("assignment routed", map[string]interface{}{
		"organizationId": input.OrganizationID,
		"requestId":      input.RequestID,
		"ruleId":         result.RuleID,
		"strategy":       result.Strategy,
		"fallback":       result.Fallback,
		"assigneeCount":  len(assigneeIDs),
	})

	return &Output{
		AssigneeIDs: assigneeIDs,
		RuleID:      result.RuleID,
		Strategy:    result.Strategy,
		Fallback:    result.Fallback,
	}, nil
}

// recordOutcome writes the audit row for one assignee. A write failure
// never unwinds the routing decision.
func (h *Handler) recordOutcome(ctx context.Context, input *Input, result assignment.Result, assignee models.CandidateUser, finalID string) {
	outcome := models.AssignmentOutcome{
		ID:             uuid.NewString(),
		OrganizationID: input.OrganizationID,
		RequestID:      input.RequestID,
		RuleID:         result.RuleID,
		ApproverID:     finalID,
		JobRoleID:      assignee.PrimaryJobRole,
		Strategy:       result.Strategy,
		Fallback:       result.Fallback,
		Timestamp:      time.Now().UTC(),
	}
	if err := h.outcomes.InsertOutcome(ctx, outcome); err != nil {
		h.logger.Warn("outcome write failed", map[string]interface{}{
			"organizationId": input.OrganizationID,
			"requestId":      input.RequestID,
			"approverId":     finalID,
			"error":          err.Error(),
		})
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, jobErr error) {
	bpmnErr := errors.ConvertToBPMNError(normalizeError(jobErr))

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    bpmnErr.Code,
		"errorMessage": bpmnErr.Message,
		"retryable":    bpmnErr.Retryable,
		"retries":      bpmnErr.Retries,
	})

	if bpmnErr.Retries > 0 {
		_, err := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(int32(bpmnErr.Retries)).
			ErrorMessage(fmt.Sprintf("[%s] %s", bpmnErr.Code, bpmnErr.Message)).
			Send(context.Background())
		if err != nil {
			h.logger.Error("failed to fail job", map[string]interface{}{
				"error": err,
			})
		}
		return
	}

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func normalizeError(err error) *errors.StandardError {
	if stdErr, ok := err.(*errors.StandardError); ok {
		return stdErr
	}
	return &errors.StandardError{
		Code:      "ASSIGN_APPROVERS_FAILED",
		Message:   "Approver assignment failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
