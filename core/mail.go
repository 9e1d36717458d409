package core

import (
	"bytes"
	htmltmpl "html/template"
	"io/fs"
	"log"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/ionode-cloud/ERP-Cell/fs"
)

const emailTemplatesDir = "templates/email"

var (
	templates tmplCache
	tmplInit  sync.Once
)

type (
	tmplCacheEntry struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}
	tmplCache map[string]*tmplCacheEntry // {name: entry}

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// ParseEmailTemplates loads the embedded email templates once. Parse failures are logged, not fatal.
func ParseEmailTemplates(logger Logger) {
	tmplInit.Do(func() {
		templates = parseTemplates(appfs.FS, logger)
	})
}

// Render fills TextContent and HTMLContent from BodyStr or the named template.
func (m *EmailMessage) Render(conf *Config) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}
	ParseEmailTemplates(nil)

	entry, ok := templates[m.TemplateName]
	if !ok {
		return errors.Errorf("email template %q not found", m.TemplateName)
	}
	data := ContextData{AppName: conf.AppName, FrontendBaseURL: conf.FrontendBaseURL, Data: m.TemplateData}

	var buff bytes.Buffer
	if entry.text != nil && m.BodyStr == "" {
		if err := entry.text.Execute(&buff, data); err != nil {
			return errors.Wrap(err, "rendering text template")
		}
		m.TextContent = buff.String()
		buff.Reset()
	}
	if entry.html != nil {
		if err := entry.html.Execute(&buff, data); err != nil {
			return errors.Wrap(err, "rendering html template")
		}
		m.HTMLContent = buff.String()
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

func parseTemplates(fsys fs.FS, logger Logger) tmplCache {
	logErr := func(err error) {
		if logger != nil {
			logger.Error("parsing email templates", err)
			return
		}
		log.Print(errors.Wrap(err, "core.parseTemplates"))
	}

	cache := make(tmplCache)
	fps, err := fs.Glob(fsys, path.Join(emailTemplatesDir, "*"))
	if err != nil {
		logErr(err)
		return cache
	}

	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := cache[name]
		if !ok {
			entry = new(tmplCacheEntry)
			cache[name] = entry
		}
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(fsys, path.Join(emailTemplatesDir, "_base.txt"), fp)
			if err != nil {
				logErr(err)
				continue
			}
			entry.text = tmpl.Option("missingkey=error")
		} else {
			tmpl, err := htmltmpl.ParseFS(fsys, path.Join(emailTemplatesDir, "_base.gohtml"), fp)
			if err != nil {
				logErr(err)
				continue
			}
			entry.html = tmpl.Option("missingkey=error")
		}
	}
	return cache
}
