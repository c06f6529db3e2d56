package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	to, subject, body string
}

type captureSender struct{ sent []captured }

func (c *captureSender) Send(_ context.Context, to, subject, body string) error {
	c.sent = append(c.sent, captured{to, subject, body})
	return nil
}

func TestNew_FallsBackToConsole(t *testing.T) {
	s, err := New(SMTPConfig{Host: "smtp.example.com", Port: 587})
	require.NoError(t, err)
	assert.IsType(t, ConsoleSender{}, s)
	assert.NoError(t, s.Send(context.Background(), "a@example.com", "hi", "body"))
}

func TestNew_SMTP(t *testing.T) {
	s, err := New(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "bot@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)
}

func TestCodeEmails(t *testing.T) {
	c := &captureSender{}
	ctx := context.Background()

	require.NoError(t, SendLoginCode(ctx, c, "inv@example.com", "123456"))
	require.NoError(t, SendResetCode(ctx, c, "far@example.com", "654321"))

	require.Len(t, c.sent, 2)
	assert.Equal(t, "inv@example.com", c.sent[0].to)
	assert.Contains(t, c.sent[0].body, "123456")
	assert.Contains(t, c.sent[1].subject, "Reset")
	assert.Contains(t, c.sent[1].body, "654321")
}
