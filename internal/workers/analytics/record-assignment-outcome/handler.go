// internal/workers/analytics/record-assignment-outcome/handler.go
package recordassignmentoutcome

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"routing-workers/internal/common/database"
	"routing-workers/internal/common/errors"
	"routing-workers/internal/common/logger"
	"routing-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "record-assignment-outcome"
)

// OutcomeStore persists the audit row to PostgreSQL.
type OutcomeStore interface {
	InsertOutcome(ctx context.Context, o models.AssignmentOutcome) error
}

// OutcomeIndexer mirrors the audit row into the analytics index.
type OutcomeIndexer interface {
	IndexOutcome(ctx context.Context, index string, o models.AssignmentOutcome) error
}

type Handler struct {
	config  *Config
	store   OutcomeStore
	indexer OutcomeIndexer
	logger  logger.Logger
}

func NewHandler(config *Config, store OutcomeStore, indexer OutcomeIndexer, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		store:   store,
		indexer: indexer,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

	now := time.Now().UTC()
	indexed := true
	recorded := 0

	for _, approverID := range input.ApproverIDs {
		outcome := models.AssignmentOutcome{
			ID:             uuid.NewString(),
			OrganizationID: input.OrganizationID,
			RequestID:      input.RequestID,
			RuleID:         input.RuleID,
			ApproverID:     approverID,
			JobRoleID:      input.JobRoleID,
			Strategy:       input.Strategy,
			Fallback:       input.Fallback,
			Timestamp:      now,
		}

		// The append-only audit row is this worker's contract; a failed
		// insert fails the job so the workflow retries it.
		if err := h.store.InsertOutcome(ctx, outcome); err != nil {
			return nil, errors.NewOutcomeInsertFailedError(err)
		}
		recorded++

		if err := h.indexer.IndexOutcome(ctx, h.config.Index, outcome); err != nil {
			indexed = false
			h.logger.Warn("outcome index mirror failed", map[string]interface{}{
				"organizationId": input.OrganizationID,
				"requestId":      input.RequestID,
				"approverId":     approverID,
				"index":          h.config.Index,
				"error":          err.Error(),
			})
		}
	}

	return &Output{OutcomesRecorded: recorded, Indexed: indexed && recorded > 0}, nil
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
		Code:      "RECORD_OUTCOME_FAILED",
		Message:   "Assignment outcome recording failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ESIndexer writes outcome documents through the shared Elasticsearch
// client, keyed by outcome id so retries overwrite instead of duplicate.
type ESIndexer struct {
	es *database.ElasticsearchClient
}

func NewESIndexer(es *database.ElasticsearchClient) *ESIndexer {
	return &ESIndexer{es: es}
}

func (i *ESIndexer) IndexOutcome(ctx context.Context, index string, o models.AssignmentOutcome) error {
	body, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal outcome document: %w", err)
	}

	res, err := i.es.Client.Index(index, bytes.NewReader(body),
		i.es.Client.Index.WithDocumentID(o.ID),
		i.es.Client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index outcome document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index outcome document: %s", res.Status())
	}
	return nil
}
