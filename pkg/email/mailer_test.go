package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/paywall/pkg/email"
)

func validParams() email.SendEmailParams {
	return email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Welcome to Paywall Premium",
		BodyHTML: "<p>hi</p>",
		Tag:      "welcome",
	}
}

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*email.SendEmailParams)
		errMsg string
	}{
		{name: "valid", mutate: func(*email.SendEmailParams) {}},
		{name: "valid without tag", mutate: func(p *email.SendEmailParams) { p.Tag = "" }},
		{name: "empty recipient", mutate: func(p *email.SendEmailParams) { p.SendTo = "  " }, errMsg: "SendTo is required"},
		{name: "malformed recipient", mutate: func(p *email.SendEmailParams) { p.SendTo = "user@" }, errMsg: "SendTo must be a valid email address"},
		{name: "missing local part", mutate: func(p *email.SendEmailParams) { p.SendTo = "@example.com" }, errMsg: "SendTo must be a valid email address"},
		{name: "empty subject", mutate: func(p *email.SendEmailParams) { p.Subject = " " }, errMsg: "Subject is required"},
		{name: "empty body", mutate: func(p *email.SendEmailParams) { p.BodyHTML = "" }, errMsg: "BodyHTML is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := validParams()
			tt.mutate(&p)

			err := p.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, email.ErrInvalidParams)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDevSender_SendEmail(t *testing.T) {
	t.Parallel()

	t.Run("writes body and envelope", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "nested")
		sender := email.NewDevSender(dir)

		require.NoError(t, sender.SendEmail(context.Background(), validParams()))

		files, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, files, 2)

		var htmlPath, jsonPath string
		for _, f := range files {
			switch {
			case strings.HasSuffix(f.Name(), "_welcome.html"):
				htmlPath = filepath.Join(dir, f.Name())
			case strings.HasSuffix(f.Name(), "_welcome.json"):
				jsonPath = filepath.Join(dir, f.Name())
			}
		}
		require.NotEmpty(t, htmlPath)
		require.NotEmpty(t, jsonPath)

		body, err := os.ReadFile(htmlPath)
		require.NoError(t, err)
		assert.Equal(t, "<p>hi</p>", string(body))

		raw, err := os.ReadFile(jsonPath)
		require.NoError(t, err)
		var meta map[string]any
		require.NoError(t, json.Unmarshal(raw, &meta))
		assert.Equal(t, "user@example.com", meta["send_to"])
		assert.Equal(t, "welcome", meta["tag"])
		assert.NotEmpty(t, meta["timestamp"])
	})

	t.Run("subject names the files without a tag", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		p := validParams()
		p.Tag = ""
		p.Subject = "Your Paywall subscription was cancelled!"

		require.NoError(t, email.NewDevSender(dir).SendEmail(context.Background(), p))

		files, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.NotEmpty(t, files)
		assert.Contains(t, files[0].Name(), "your_paywall_subscription_was_cancelled")
	})

	t.Run("invalid params write nothing", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		p := validParams()
		p.SendTo = ""

		err := email.NewDevSender(dir).SendEmail(context.Background(), p)
		assert.ErrorIs(t, err, email.ErrInvalidParams)
		files, _ := os.ReadDir(dir)
		assert.Empty(t, files)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := email.NewDevSender(t.TempDir()).SendEmail(ctx, validParams())
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
	})
}

func TestNewSender(t *testing.T) {
	t.Parallel()

	dev, err := email.NewSender(email.Config{SenderEmail: "noreply@example.com", DevDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &email.DevSender{}, dev)

	pm, err := email.NewSender(email.Config{SenderEmail: "noreply@example.com", PostmarkServerToken: "token"})
	require.NoError(t, err)
	assert.IsType(t, &email.PostmarkClient{}, pm)
}
