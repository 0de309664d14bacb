// internal/workers/notification/send-assignment-notification/handler.go
package sendassignmentnotification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"routing-workers/internal/common/errors"
	"routing-workers/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "send-assignment-notification"
)

// EmailSender is satisfied by the shared SES client.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SMSSender is satisfied by the shared SNS client.
type SMSSender interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Handler struct {
	config *Config
	email  EmailSender
	sms    SMSSender
	logger logger.Logger
}

func NewHandler(config *Config, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		email:  email,
		sms:    sms,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

// execute notifies each approver. Sends are fire-and-forget: a provider
// failure is logged and skipped, never unwinding the assignment that
// triggered the notification.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.RequestID == "" {
		return nil, errors.NewRequestValidationFailedError("requestId is required")
	}

	output := &Output{}
	for _, approver := range input.Approvers {
		if h.config.EmailEnabled && approver.Email != "" {
			if err := h.sendEmail(ctx, input, approver); err != nil {
				h.logger.Warn("email send failed", map[string]interface{}{
					"requestId":  input.RequestID,
					"approverId": approver.ID,
					"error":      err.Error(),
				})
			} else {
				output.EmailsSent++
			}
		}

		if h.config.SMSEnabled && approver.Phone != "" && priorityAtLeast(input.Priority, h.config.PriorityThreshold) {
			if err := h.sendSMS(ctx, input, approver); err != nil {
				h.logger.Warn("sms send failed", map[string]interface{}{
					"requestId":  input.RequestID,
					"approverId": approver.ID,
					"error":      err.Error(),
				})
			} else {
				output.SMSSent++
			}
		}
	}

	h.logger.Info("assignment notifications dispatched", map[string]interface{}{
		"requestId":  input.RequestID,
		"approvers":  len(input.Approvers),
		"emailsSent": output.EmailsSent,
		"smsSent":    output.SMSSent,
	})

	return output, nil
}

func (h *Handler) sendEmail(ctx context.Context, input *Input, approver ApproverContact) error {
	subject := fmt.Sprintf("Approval requested: %s", input.RequestTitle)
	body := fmt.Sprintf(
		"Hi %s,\n\nRequest %s has been assigned to you for approval (priority: %s).\n",
		approver.Name, input.RequestID, input.Priority)

	_, err := h.email.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(h.config.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{approver.Email},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, input *Input, approver ApproverContact) error {
	message := fmt.Sprintf("Approval requested for %s (priority: %s)", input.RequestID, input.Priority)

	_, err := h.sms.Publish(ctx, &sns.PublishInput{
		Message:     aws.String(message),
		PhoneNumber: aws.String(approver.Phone),
	})
	return err
}

// priorityAtLeast reports whether priority meets the SMS threshold.
// Unknown values rank below low, so they never page anyone.
func priorityAtLeast(priority, threshold string) bool {
	return priorityRank(priority) >= priorityRank(threshold)
}

func priorityRank(priority string) int {
	switch priority {
	case PriorityLow:
		return 1
	case PriorityNormal, "medium":
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	default:
		return 0
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
		Code:      "SEND_NOTIFICATION_FAILED",
		Message:   "Assignment notification dispatch failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
