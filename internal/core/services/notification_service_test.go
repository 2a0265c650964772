package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"authgate/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureAgent struct {
	recipient string
	subject   string
	body      string
	err       error
}

func (a *captureAgent) Send(ctx context.Context, recipient, subject, body string) error {
	if a.err != nil {
		return a.err
	}
	a.recipient = recipient
	a.subject = subject
	a.body = body
	return nil
}

func TestSendNewUser(t *testing.T) {
	t.Parallel()
	agent := &captureAgent{}
	svc := NewNotificationService(agent, testConfig())

	err := svc.SendNewUser(context.Background(), "alice@example.com", "code123")
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", agent.recipient)
	assert.Contains(t, agent.subject, testDomain)
	assert.Contains(t, agent.body, testDomain)
	assert.Contains(t, agent.body, "http://localhost:8000/password/reset/code123")
}

func TestSendReset(t *testing.T) {
	t.Parallel()
	agent := &captureAgent{}
	svc := NewNotificationService(agent, testConfig())

	err := svc.SendReset(context.Background(), "alice@example.com", "code456")
	require.NoError(t, err)

	assert.True(t, strings.Contains(agent.body, "code456"))
	assert.Contains(t, agent.subject, "reset")
}

func TestSendDeliveryFailure(t *testing.T) {
	t.Parallel()
	agent := &captureAgent{err: errors.New("relay down")}
	svc := NewNotificationService(agent, testConfig())

	err := svc.SendReset(context.Background(), "alice@example.com", "code456")
	assert.ErrorIs(t, err, domain.ErrNotification)
	// The transport error itself is not propagated to the caller
	assert.NotContains(t, err.Error(), "relay down")
}
