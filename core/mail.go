package core

import (
	"bytes"
	"embed"
	htmltmpl "html/template"
	"net/mail"
	"strings"
	"sync"
	texttmpl "text/template"
)

//go:embed templates/email
var emailTemplateFS embed.FS

var (
	textTemplates *texttmpl.Template
	htmlTemplates *htmltmpl.Template
	tmplInit      sync.Once
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// Render resolves TextContent and HTMLContent from either BodyStr or the
// named templates under core/templates/email.
func (m *EmailMessage) Render(conf *Config) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if m.TemplateName == "" {
		return nil
	}
	tmplInit.Do(parseTemplates)

	data := ContextData{FrontendBaseURL: conf.FrontendBaseURL, Data: m.TemplateData}

	if tmpl := textTemplates.Lookup(m.TemplateName + ".txt"); tmpl != nil {
		var buff bytes.Buffer
		if err := tmpl.Execute(&buff, data); err != nil {
			return err
		}
		m.TextContent = buff.String()
	}
	if tmpl := htmlTemplates.Lookup(m.TemplateName + ".gohtml"); tmpl != nil {
		var buff bytes.Buffer
		if err := tmpl.Execute(&buff, data); err != nil {
			return err
		}
		m.HTMLContent = buff.String()
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

func parseTemplates() {
	textTemplates = texttmpl.Must(texttmpl.ParseFS(emailTemplateFS, "templates/email/*.txt"))
	htmlTemplates = htmltmpl.Must(htmltmpl.ParseFS(emailTemplateFS, "templates/email/*.gohtml"))
}

// JoinAddresses renders a list of addresses for a mail header.
func JoinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}
