package emailsvc

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"golang.org/x/sync/errgroup"

	"github.com/ionode-cloud/ERP-Cell/core"
)

type sendgridService struct {
	conf     *core.Config
	client   *sendgrid.Client
	from     *sgmail.Email
	prefix   string
	inFlight int
	logger   core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

// NewSendgridService sends through the SendGrid v3 API, at most conf.Batch.Concurrency requests at a time.
func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	from := conf.FromEmail()
	return &sendgridService{
		conf:     conf,
		client:   sendgrid.NewSendClient(conf.SendgridApiKey),
		from:     sgmail.NewEmail(from.Name, from.Address),
		prefix:   subjectPrefix(conf),
		inFlight: conf.Batch.Concurrency,
		logger:   logger,
	}
}

// SendMessages returns immediately; delivery failures are logged.
func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	go func() {
		g, _ := errgroup.WithContext(context.Background())
		g.SetLimit(svc.inFlight)
		for _, msg := range messages {
			msg := msg
			g.Go(func() error {
				svc.deliver(msg)
				return nil
			})
		}
		_ = g.Wait()
	}()
}

func (svc *sendgridService) deliver(msg *core.EmailMessage) {
	if err := msg.Render(svc.conf); err != nil {
		svc.logger.Error(fmt.Sprintf("rendering email %q", msg.TemplateName), err)
		return
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return
	}

	res, err := svc.client.Send(svc.build(*msg))
	fields := map[string]interface{}{"to": joinAddresses(msg.To), "template": msg.TemplateName}
	switch {
	case err != nil:
		svc.logger.Error("sending email", err, fields)
	case res.StatusCode >= http.StatusBadRequest:
		fields["status"] = res.StatusCode
		fields["body"] = res.Body
		svc.logger.Error("sending email: rejected by sendgrid", fields)
	}
}

func (svc *sendgridService) build(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.prefix + msg.Subject
	p.AddTos(sgAddresses(msg.To)...)
	if len(msg.Cc) > 0 {
		p.AddCCs(sgAddresses(msg.Cc)...)
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	if msg.TemplateName != "" {
		m.AddCategories(msg.TemplateName)
	}
	return m
}

func sgAddresses(addrs []mail.Address) []*sgmail.Email {
	res := make([]*sgmail.Email, 0, len(addrs))
	for _, a := range addrs {
		res = append(res, sgmail.NewEmail(a.Name, a.Address))
	}
	return res
}
