package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/oseayemenre/bookshelf/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	infos []string
}

func (l *recordingLogger) Debug(msg string, args ...any) {}
func (l *recordingLogger) Info(msg string, args ...any)  { l.infos = append(l.infos, msg) }
func (l *recordingLogger) Warn(msg string, args ...any)  {}
func (l *recordingLogger) Error(msg string, args ...any) {}

func TestPasswordResetMessage(t *testing.T) {
	link := `https://books.example.com/reset-password?token=a.b.c&x="><script>`

	msg := PasswordResetMessage("jane@example.com", link)

	assert.Equal(t, "jane@example.com", msg.To)
	assert.Equal(t, ResetSubject, msg.Subject)
	assert.Contains(t, msg.Text, link)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "token=a.b.c&amp;x=&#34;&gt;&lt;script&gt;")
	assert.True(t, strings.Count(msg.HTML, "reset-password") == 2)
}

func TestLogMailer(t *testing.T) {
	l := &recordingLogger{}

	err := NewLogMailer(l).Send(context.Background(), &Message{To: "jane@example.com", Subject: "hi"})

	require.NoError(t, err)
	assert.Len(t, l.infos, 1)
}

func TestNewSMTPMailer(t *testing.T) {
	m, err := NewSMTPMailer(&config.Config{
		SMTPHost:      "smtp.example.com",
		SMTPPort:      587,
		SMTPUser:      "helpdesk@example.com",
		SMTPPass:      "secret",
		EmailFromName: "Bookshelf Helpdesk",
	})

	require.NoError(t, err)
	assert.Equal(t, "helpdesk@example.com", m.from)
	assert.Equal(t, "Bookshelf Helpdesk", m.fromName)
}
