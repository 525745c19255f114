package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-ims/stockroom/internal/shared"
)

func testConfig() SMTPConfig {
	return SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "alerts@example.com",
		Password: "app-password",
		To:       "owner@example.com",
	}
}

func TestSendWithoutCredentials(t *testing.T) {
	called := false
	sender := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, To: "owner@example.com"}).
		WithDeliver(func(context.Context, SMTPConfig, Message) error {
			called = true
			return nil
		})

	err := sender.Send(context.Background(), "Low Stock Alert", "body")
	require.ErrorIs(t, err, ErrCredentialsMissing)
	assert.False(t, called)
	assert.False(t, sender.Configured())
}

func TestSendBuildsEnvelope(t *testing.T) {
	var got Message
	var gotCfg SMTPConfig
	sender := NewSMTPSender(testConfig()).WithDeliver(func(_ context.Context, cfg SMTPConfig, msg Message) error {
		gotCfg = cfg
		got = msg
		return nil
	})

	require.NoError(t, sender.Send(context.Background(), "Low Stock Alert", "The stock level for product Widget is low. Current stock: 2"))
	assert.Equal(t, "alerts@example.com", got.From, "sender falls back to the relay login")
	assert.Equal(t, "owner@example.com", got.To)
	assert.Equal(t, "Low Stock Alert", got.Subject)
	assert.Equal(t, "smtp.example.com:587", gotCfg.addr())
}

func TestSendExplicitSender(t *testing.T) {
	cfg := testConfig()
	cfg.From = "stockroom@example.com"
	var got Message
	sender := NewSMTPSender(cfg).WithDeliver(func(_ context.Context, _ SMTPConfig, msg Message) error {
		got = msg
		return nil
	})

	require.NoError(t, sender.Send(context.Background(), "s", "b"))
	assert.Equal(t, "stockroom@example.com", got.From)
}

func TestSendMissingReceiver(t *testing.T) {
	cfg := testConfig()
	cfg.To = ""
	err := NewSMTPSender(cfg).Send(context.Background(), "s", "b")
	require.ErrorIs(t, err, shared.ErrConfiguration)
}

func TestSendWrapsRelayFailure(t *testing.T) {
	relayErr := errors.New("535 authentication failed")
	sender := NewSMTPSender(testConfig()).WithDeliver(func(context.Context, SMTPConfig, Message) error {
		return relayErr
	})

	err := sender.Send(context.Background(), "Low Stock Alert", "b")
	require.ErrorIs(t, err, shared.ErrDependency)
	require.ErrorIs(t, err, relayErr)
}

func TestMessageBytes(t *testing.T) {
	msg := Message{From: "a@example.com", To: "b@example.com", Subject: "Low Stock Alert", Body: "line one\nline two"}
	assert.Equal(t,
		"From: a@example.com\r\nTo: b@example.com\r\nSubject: Low Stock Alert\r\n"+
			"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n"+
			"line one\r\nline two\r\n",
		string(msg.Bytes()))
}
