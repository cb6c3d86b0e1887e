package notification

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qurux/internal/config"
)

func TestBuildMIME(t *testing.T) {
	raw := string(buildMIME(`"Qurux Booking" <noreply@qurux.com>`, "amina@qurux.so", &Message{
		Subject: "Booking Confirmed: Henna\r\nApplication",
		HTML:    "<p>hi</p>",
	}))

	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, head, "To: amina@qurux.so")
	assert.Contains(t, head, "Subject: Booking Confirmed: Henna  Application")
	assert.Contains(t, head, `Content-Type: text/html; charset="UTF-8"`)
	assert.Equal(t, "<p>hi</p>", body)
}

func TestSMTPMailer_RejectsBadAddresses(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "127.0.0.1", Port: 1, From: "not an address"})
	err := m.Send(context.Background(), &Message{To: "amina@qurux.so"})
	assert.ErrorContains(t, err, "invalid from address")

	m = NewSMTPMailer(config.SMTPConfig{Host: "127.0.0.1", Port: 1, From: "noreply@qurux.com"})
	err = m.Send(context.Background(), &Message{To: "nope"})
	assert.ErrorContains(t, err, "invalid recipient")
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(zerolog.New(&buf))

	require.NoError(t, m.Send(context.Background(), &Message{To: "amina@qurux.so", Subject: "Booking Confirmed", HTML: "<p/>"}))
	assert.Contains(t, buf.String(), "amina@qurux.so")
	assert.Contains(t, buf.String(), "smtp disabled")
}
