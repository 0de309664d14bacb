// internal/workers/notification/send-assignment-notification/handler_test.go
package sendassignmentnotification

import (
	"context"
	"testing"
	"time"

	"routing-workers/internal/common/config"
	"routing-workers/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeEmailSender struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeEmailSender) SendEmail(_ context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{}, nil
}

type fakeSMSSender struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSMSSender) Publish(_ context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{}, nil
}

func createTestConfig() *Config {
	return &Config{
		Timeout:           15 * time.Second,
		EmailEnabled:      true,
		FromEmail:         "noreply@example.com",
		SMSEnabled:        true,
		PriorityThreshold: PriorityHigh,
	}
}

func createTestInput(priority string) *Input {
	return &Input{
		OrganizationID: "org-1",
		RequestID:      "req-1",
		RequestTitle:   "Q3 budget increase",
		Priority:       priority,
		Approvers: []ApproverContact{
			{ID: "approver-a", Name: "Alex", Email: "alex@example.com", Phone: "+15550100"},
		},
	}
}

func newTestHandler(t *testing.T, cfg *Config, email *fakeEmailSender, sms *fakeSMSSender) *Handler {
	return NewHandler(cfg, email, sms, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_EmailAndSMSForUrgent(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	handler := newTestHandler(t, createTestConfig(), email, sms)

	output, err := handler.Execute(context.Background(), createTestInput(PriorityUrgent))

	assert.NoError(t, err)
	assert.Equal(t, 1, output.EmailsSent)
	assert.Equal(t, 1, output.SMSSent)
	assert.Len(t, email.inputs, 1)
	assert.Equal(t, "noreply@example.com", *email.inputs[0].Source)
	assert.Equal(t, []string{"alex@example.com"}, email.inputs[0].Destination.ToAddresses)
	assert.Len(t, sms.inputs, 1)
	assert.Equal(t, "+15550100", *sms.inputs[0].PhoneNumber)
}

func TestHandler_Execute_SMSGatedByPriorityThreshold(t *testing.T) {
	tests := []struct {
		priority string
		wantSMS  int
	}{
		{PriorityLow, 0},
		{PriorityNormal, 0},
		{PriorityHigh, 1},
		{PriorityUrgent, 1},
		{"unknown", 0},
	}

	for _, tt := range tests {
		t.Run(tt.priority, func(t *testing.T) {
			sms := &fakeSMSSender{}
			handler := newTestHandler(t, createTestConfig(), &fakeEmailSender{}, sms)

			output, err := handler.Execute(context.Background(), createTestInput(tt.priority))

			assert.NoError(t, err)
			assert.Equal(t, tt.wantSMS, output.SMSSent)
			assert.Equal(t, 1, output.EmailsSent)
		})
	}
}

func TestHandler_Execute_SendFailureIsFireAndForget(t *testing.T) {
	email := &fakeEmailSender{err: assert.AnError}
	sms := &fakeSMSSender{err: assert.AnError}
	handler := newTestHandler(t, createTestConfig(), email, sms)

	// Delivery failure never unwinds the assignment.
	output, err := handler.Execute(context.Background(), createTestInput(PriorityUrgent))

	assert.NoError(t, err)
	assert.Zero(t, output.EmailsSent)
	assert.Zero(t, output.SMSSent)
}

func TestHandler_Execute_ChannelsDisabled(t *testing.T) {
	cfg := createTestConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false

	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	handler := newTestHandler(t, cfg, email, sms)

	output, err := handler.Execute(context.Background(), createTestInput(PriorityUrgent))

	assert.NoError(t, err)
	assert.Zero(t, output.EmailsSent)
	assert.Zero(t, output.SMSSent)
	assert.Empty(t, email.inputs)
	assert.Empty(t, sms.inputs)
}

func TestHandler_Execute_SkipsMissingContactFields(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	handler := newTestHandler(t, createTestConfig(), email, sms)

	input := createTestInput(PriorityUrgent)
	input.Approvers = []ApproverContact{
		{ID: "no-email", Phone: "+15550101"},
		{ID: "no-phone", Email: "pat@example.com"},
	}

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, 1, output.EmailsSent)
	assert.Equal(t, 1, output.SMSSent)
}

func TestHandler_Execute_MissingRequestIDFails(t *testing.T) {
	handler := newTestHandler(t, createTestConfig(), &fakeEmailSender{}, &fakeSMSSender{})

	input := createTestInput(PriorityHigh)
	input.RequestID = ""

	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.Nil(t, output)
}

// ==========================
// Unit Tests
// ==========================

func TestPriorityAtLeast(t *testing.T) {
	assert.True(t, priorityAtLeast(PriorityUrgent, PriorityHigh))
	assert.True(t, priorityAtLeast(PriorityHigh, PriorityHigh))
	assert.True(t, priorityAtLeast("medium", PriorityNormal))
	assert.False(t, priorityAtLeast(PriorityNormal, PriorityHigh))
	assert.False(t, priorityAtLeast("", PriorityLow))
}

func TestLoadConfig_DefaultThreshold(t *testing.T) {
	cfg := LoadConfig(config.NotificationConfig{})
	assert.Equal(t, PriorityHigh, cfg.PriorityThreshold)
}
