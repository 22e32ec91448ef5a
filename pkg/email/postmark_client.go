package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// PostmarkClient sends messages through the Postmark API.
type PostmarkClient struct {
	client  *postmark.Client
	from    string
	replyTo string
}

// PostmarkOption configures a PostmarkClient.
type PostmarkOption func(*postmark.Client)

// WithPostmarkBaseURL points the client at another API endpoint.
func WithPostmarkBaseURL(url string) PostmarkOption {
	return func(c *postmark.Client) {
		c.BaseURL = url
	}
}

// NewPostmarkClient validates cfg and creates a Postmark sender.
func NewPostmarkClient(cfg Config, opts ...PostmarkOption) (*PostmarkClient, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if cfg.SupportEmail != "" && !emailRegex.MatchString(cfg.SupportEmail) {
		return nil, fmt.Errorf("%w: SupportEmail must be a valid email address", ErrInvalidConfig)
	}

	client := postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken)
	for _, opt := range opts {
		opt(client)
	}
	return &PostmarkClient{client: client, from: cfg.SenderEmail, replyTo: cfg.replyTo()}, nil
}

// SendEmail sends params with open and HTML link tracking. Replies go to
// the support address.
func (c *PostmarkClient) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	resp, err := c.client.SendEmail(ctx, postmark.Email{
		From:       c.from,
		ReplyTo:    c.replyTo,
		To:         params.SendTo,
		Subject:    params.Subject,
		Tag:        params.Tag,
		HTMLBody:   params.BodyHTML,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrFailedToSendEmail, fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
