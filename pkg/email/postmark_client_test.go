package email_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/paywall/pkg/email"
)

func TestNewPostmarkClient_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    email.Config
		errMsg string
	}{
		{name: "missing token", cfg: email.Config{SenderEmail: "a@example.com"}, errMsg: "PostmarkServerToken is required"},
		{name: "bad sender", cfg: email.Config{PostmarkServerToken: "t", SenderEmail: "nope"}, errMsg: "SenderEmail"},
		{name: "bad support", cfg: email.Config{PostmarkServerToken: "t", SenderEmail: "a@example.com", SupportEmail: "x"}, errMsg: "SupportEmail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client, err := email.NewPostmarkClient(tt.cfg)
			assert.Nil(t, client)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestPostmarkClient_SendEmail(t *testing.T) {
	t.Parallel()

	newServer := func(t *testing.T, errorCode int, got *map[string]any) *httptest.Server {
		t.Helper()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "server-token", r.Header.Get("X-Postmark-Server-Token"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"To":        "user@example.com",
				"MessageID": "msg-1",
				"ErrorCode": errorCode,
				"Message":   "Inactive recipient",
			})
		}))
		t.Cleanup(srv.Close)
		return srv
	}

	cfg := email.Config{
		PostmarkServerToken: "server-token",
		SenderEmail:         "noreply@example.com",
	}

	t.Run("sends with sender as reply-to fallback", func(t *testing.T) {
		t.Parallel()
		var got map[string]any
		srv := newServer(t, 0, &got)
		client, err := email.NewPostmarkClient(cfg, email.WithPostmarkBaseURL(srv.URL))
		require.NoError(t, err)

		require.NoError(t, client.SendEmail(context.Background(), validParams()))
		assert.Equal(t, "noreply@example.com", got["From"])
		assert.Equal(t, "noreply@example.com", got["ReplyTo"])
		assert.Equal(t, "user@example.com", got["To"])
		assert.Equal(t, "welcome", got["Tag"])
	})

	t.Run("provider error code", func(t *testing.T) {
		t.Parallel()
		var got map[string]any
		srv := newServer(t, 406, &got)
		client, err := email.NewPostmarkClient(cfg, email.WithPostmarkBaseURL(srv.URL))
		require.NoError(t, err)

		err = client.SendEmail(context.Background(), validParams())
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
	})

	t.Run("validation happens before the request", func(t *testing.T) {
		t.Parallel()
		client, err := email.NewPostmarkClient(cfg, email.WithPostmarkBaseURL("http://127.0.0.1:0"))
		require.NoError(t, err)

		p := validParams()
		p.Subject = ""
		assert.ErrorIs(t, client.SendEmail(context.Background(), p), email.ErrInvalidParams)
	})
}
