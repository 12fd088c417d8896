package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/shinyyama/centace-backend/internal/model"
)

type Content struct {
	Subject string
	HTML    string
	Text    string
}

type templateSpec struct {
	Subject  string
	Heading  string
	CTALabel string
}

var templateSpecs = map[model.EmailTemplate]templateSpec{
	model.TemplateWelcome:     {Subject: "Welcome to Centace", Heading: "Welcome aboard", CTALabel: "Explore projects"},
	model.TemplateInvestment:  {Subject: "Investment Confirmation", Heading: "Your investment is confirmed", CTALabel: "View portfolio"},
	model.TemplateUpdate:      {Subject: "Project Update", Heading: "News from your project", CTALabel: "View portfolio"},
	model.TemplateReturn:      {Subject: "Return Payment Received", Heading: "A return has been paid out", CTALabel: "View portfolio"},
	model.TemplateTransaction: {Subject: "Transaction Notification", Heading: "Wallet activity", CTALabel: "Open wallet"},
	model.TemplateNew:         {Subject: "New Investment Opportunity", Heading: "A new project just opened", CTALabel: "Discover projects"},
	model.TemplateVisit:       {Subject: "Site Visit Confirmation", Heading: "Your site visit is confirmed", CTALabel: "View bookings"},
	model.TemplateDefault:     {Subject: "Centace Notification", Heading: "You have a new notification", CTALabel: "Open notifications"},
}

// Subject returns the fixed subject line for a template.
func Subject(tmpl model.EmailTemplate) string {
	if s, ok := templateSpecs[tmpl]; ok {
		return s.Subject
	}
	return templateSpecs[model.TemplateDefault].Subject
}

const htmlLayout = `<!DOCTYPE html>
<html>
<body style="font-family:Helvetica,Arial,sans-serif;background:#f6f7f9;padding:24px">
  <div style="max-width:560px;margin:0 auto;background:#ffffff;border-radius:8px;padding:32px">
    <p style="color:#6b7280;margin:0 0 8px">{{.Heading}}</p>
    {{if .Name}}<p>Hi {{.Name}},</p>{{end}}
    <h2 style="margin:0 0 16px">{{.Title}}</h2>
    <p style="line-height:1.5">{{.Message}}</p>
    <p style="margin-top:24px"><a href="{{.CTAURL}}" style="background:#111827;color:#ffffff;padding:12px 20px;border-radius:6px;text-decoration:none">{{.CTALabel}}</a></p>
    <p style="color:#9ca3af;font-size:12px;margin-top:32px">You can change which emails you receive in your Centace settings.</p>
  </div>
</body>
</html>
`

const textLayout = `{{.Heading}}
{{if .Name}}
Hi {{.Name}},
{{end}}
{{.Title}}

{{.Message}}

{{.CTALabel}}: {{.CTAURL}}

You can change which emails you receive in your Centace settings.
`

type layoutData struct {
	Heading  string
	Name     string
	Title    string
	Message  string
	CTALabel string
	CTAURL   string
}

// Renderer turns a notification into subject and bodies. Both bodies carry
// exactly one call-to-action link: base URL joined with the type's path.
type Renderer struct {
	baseURL string
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

func NewRenderer(baseURL string) (*Renderer, error) {
	html, err := htmltemplate.New("html").Parse(htmlLayout)
	if err != nil {
		return nil, fmt.Errorf("parse html layout: %w", err)
	}
	text, err := texttemplate.New("text").Parse(textLayout)
	if err != nil {
		return nil, fmt.Errorf("parse text layout: %w", err)
	}
	return &Renderer{
		baseURL: strings.TrimRight(baseURL, "/"),
		html:    html,
		text:    text,
	}, nil
}

func (r *Renderer) CTAURL(t model.NotificationType) string {
	return r.baseURL + t.Info().CTAPath
}

func (r *Renderer) Render(n model.Notification, recipientName string) (Content, error) {
	info := n.Type.Info()
	spec, ok := templateSpecs[info.Template]
	if !ok {
		spec = templateSpecs[model.TemplateDefault]
	}
	data := layoutData{
		Heading:  spec.Heading,
		Name:     recipientName,
		Title:    n.Title,
		Message:  n.Message,
		CTALabel: spec.CTALabel,
		CTAURL:   r.CTAURL(n.Type),
	}

	var html, text bytes.Buffer
	if err := r.html.Execute(&html, data); err != nil {
		return Content{}, fmt.Errorf("render html: %w", err)
	}
	if err := r.text.Execute(&text, data); err != nil {
		return Content{}, fmt.Errorf("render text: %w", err)
	}
	return Content{Subject: spec.Subject, HTML: html.String(), Text: text.String()}, nil
}
