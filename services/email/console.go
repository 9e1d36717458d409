package emailsvc

import (
	"fmt"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
)

var (
	// SentMessages records every message delivered by a console service.
	SentMessages = make([]core.EmailMessage, 0)
	mu           sync.Mutex
)

// consoleService prints messages as MIME documents instead of sending them.
type consoleService struct {
	conf   *core.Config
	from   mail.Address
	prefix string
	quiet  bool // record without printing
	sync   bool // deliver before SendMessages returns
	logger core.Logger
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config, logger core.Logger) core.EmailService {
	return &consoleService{conf: conf, from: conf.FromEmail(), prefix: subjectPrefix(conf), logger: logger}
}

// NewConsoleServiceMock delivers synchronously and silently; inspect SentMessages.
func NewConsoleServiceMock(conf *core.Config, logger core.Logger) core.EmailService {
	return &consoleService{conf: conf, from: conf.FromEmail(), prefix: subjectPrefix(conf), quiet: true, sync: true, logger: logger}
}

// ResetSentMessages clears the messages recorded by the console services.
func ResetSentMessages() {
	mu.Lock()
	SentMessages = make([]core.EmailMessage, 0)
	mu.Unlock()
}

func (svc *consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if svc.sync {
			svc.deliver(msg)
			continue
		}
		go svc.deliver(msg)
	}
}

func (svc *consoleService) deliver(msg *core.EmailMessage) {
	if err := msg.Render(svc.conf); err != nil {
		svc.logger.Error(fmt.Sprintf("rendering email %q", msg.TemplateName), err)
		return
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return
	}

	doc, err := svc.format(*msg)
	if err != nil {
		svc.logger.Error("formatting email", err)
		return
	}
	if !svc.quiet {
		svc.logger.Info("email\n" + doc)
	}
	mu.Lock()
	SentMessages = append(SentMessages, *msg)
	mu.Unlock()
}

// format renders msg as a multipart/alternative document.
func (svc *consoleService) format(msg core.EmailMessage) (string, error) {
	var body strings.Builder
	parts := multipart.NewWriter(&body)

	header := []string{
		"From: " + svc.from.String(),
		"To: " + joinAddresses(msg.To),
		"Subject: " + svc.prefix + msg.Subject,
		"Date: " + time.Now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=" + parts.Boundary(),
	}
	if len(msg.Cc) > 0 {
		header = append(header, "Cc: "+joinAddresses(msg.Cc))
	}

	contents := [][2]string{{"text/plain; charset=utf-8", msg.TextContent}}
	if msg.HTMLContent != "" {
		contents = append(contents, [2]string{"text/html; charset=utf-8", msg.HTMLContent})
	}
	for _, c := range contents {
		w, err := parts.CreatePart(textproto.MIMEHeader{"Content-Type": {c[0]}})
		if err != nil {
			return "", errors.Wrap(err, "creating "+c[0]+" part")
		}
		if _, err = fmt.Fprintf(w, "%s\r\n", c[1]); err != nil {
			return "", errors.Wrap(err, "writing "+c[0]+" part")
		}
	}
	if err := parts.Close(); err != nil {
		return "", errors.Wrap(err, "closing parts")
	}
	return strings.Join(header, "\r\n") + "\r\n\r\n" + body.String(), nil
}

func subjectPrefix(conf *core.Config) string {
	return "[" + conf.AppName + "] "
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}
