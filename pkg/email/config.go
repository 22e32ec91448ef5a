package email

// Config holds email delivery settings. Without a Postmark server token
// messages are written to DevDir instead of being sent.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"tmp/emails"`
}

// replyTo is the support address, falling back to the sender.
func (c Config) replyTo() string {
	if c.SupportEmail != "" {
		return c.SupportEmail
	}
	return c.SenderEmail
}
