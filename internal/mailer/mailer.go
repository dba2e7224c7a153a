package mailer

import (
	"context"
	"fmt"
	"html"

	"github.com/oseayemenre/bookshelf/internal/config"
	"github.com/oseayemenre/bookshelf/internal/logger"
	"github.com/wneessen/go-mail"
)

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

const ResetSubject = "Reset your Bookshelf password"

// PasswordResetMessage builds the reset email for link. The link is escaped
// before it is placed in the HTML body.
func PasswordResetMessage(to, link string) *Message {
	escaped := html.EscapeString(link)

	return &Message{
		To:      to,
		Subject: ResetSubject,
		Text: fmt.Sprintf(
			"You requested a password reset for your Bookshelf account.\n\n"+
				"Open this link to choose a new password (valid for 1 hour):\n%s\n\n"+
				"If you did not request this, you can ignore this email.\n", link),
		HTML: fmt.Sprintf(
			`<p>You requested a password reset for your Bookshelf account.</p>`+
				`<p><a href="%s">Choose a new password</a> (valid for 1 hour).</p>`+
				`<p>If the button does not work, copy this link into your browser:<br>%s</p>`+
				`<p>If you did not request this, you can ignore this email.</p>`, escaped, escaped),
	}
}

type SMTPMailer struct {
	client   *mail.Client
	from     string
	fromName string
}

func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}

	if cfg.SMTPPort == 465 {
		opts = append(opts, mail.WithSSLPort(false))
	}

	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPass),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)

	if err != nil {
		return nil, fmt.Errorf("error creating smtp client: %v", err)
	}

	from := cfg.EmailFrom
	if from == "" {
		from = cfg.SMTPUser
	}

	return &SMTPMailer{
		client:   client,
		from:     from,
		fromName: cfg.EmailFromName,
	}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	out := mail.NewMsg()

	if err := out.FromFormat(m.fromName, m.from); err != nil {
		return fmt.Errorf("error setting sender: %v", err)
	}

	if err := out.To(msg.To); err != nil {
		return fmt.Errorf("error setting recipient: %v", err)
	}

	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextPlain, msg.Text)

	if msg.HTML != "" {
		out.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}

	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}

	return nil
}

// LogMailer writes messages to the log instead of sending them. Used when no
// SMTP host or queue is configured.
type LogMailer struct {
	logger logger.Logger
}

func NewLogMailer(logger logger.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg *Message) error {
	m.logger.Info("email not sent, no transport configured", "to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}
