package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionode-cloud/ERP-Cell/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newConfig() *core.Config {
	return &core.Config{AppName: "ERP Cell", DefaultFromEmail: "ERP Cell <noreply@localhost>"}
}

func TestConsoleServiceMock(t *testing.T) {
	ResetSentMessages()
	conf := newConfig()
	svc := NewConsoleServiceMock(conf, nopLogger{})

	svc.SendMessages(
		&core.EmailMessage{
			To:      []mail.Address{{Name: "Asha Rao", Address: "asha@college.edu"}},
			Subject: "Fee payment reminder",
			BodyStr: "Amount due: 1000.00",
		},
		&core.EmailMessage{Subject: "nobody to send to", BodyStr: "lost"},
	)

	require.Len(t, SentMessages, 1)
	assert.Equal(t, "Amount due: 1000.00", SentMessages[0].TextContent)
}

func TestConsoleService_format(t *testing.T) {
	conf := newConfig()
	svc := NewConsoleService(conf, nopLogger{}).(*consoleService)

	doc, err := svc.format(core.EmailMessage{
		To:          []mail.Address{{Address: "asha@college.edu"}},
		Cc:          []mail.Address{{Address: "office@college.edu"}},
		Subject:     "Hello",
		TextContent: "plain",
		HTMLContent: "<p>html</p>",
	})
	require.NoError(t, err)
	head := doc[:strings.Index(doc, "\r\n\r\n")]
	assert.Contains(t, head, "Subject: ["+conf.AppName+"] Hello")
	assert.Contains(t, head, "To: <asha@college.edu>")
	assert.Contains(t, head, "Cc: <office@college.edu>")
	assert.Contains(t, head, "Content-Type: multipart/alternative; boundary=")
	assert.Contains(t, doc, "Content-Type: text/html; charset=utf-8")
	assert.Contains(t, doc, "<p>html</p>")
}
