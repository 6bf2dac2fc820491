package notify

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// ErrUnknownTemplate is returned for template names without a definition
var ErrUnknownTemplate = errors.New("unknown notification template")

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
}

var definitions = map[string][2]string{
	"acquisition_request": {
		`Your {{.kind}} request has been {{.action}}`,
		`Dear {{.name}},

your {{.kind}} request {{.request_id}} for record {{.record_id}} has been {{.action}}.
Copies: {{.copies}}. Delivery: {{.delivery}}.{{if .comments}}
Comments: {{.comments}}{{end}}
Placeholder item: {{.items}}`,
	},
	"acquisition_ordered": {
		`Your {{.kind}} request is {{.status}}`,
		`Dear {{.name}},

your {{.kind}} request {{.request_id}} for record {{.record_id}} is now {{.status}}.{{if .vendor_id}}
Vendor: {{.vendor_id}}{{end}}{{if .price}}
Price: {{.price}} {{.currency}}{{end}}`,
	},
	"acquisition_declined": {
		`Your {{.kind}} request was declined`,
		`Dear {{.name}},

we are sorry, your {{.kind}} request {{.request_id}} for record {{.record_id}} was declined.`,
	},
	"acquisition_delivery": {
		`Your {{.kind}} has been delivered`,
		`Dear {{.name}},

the document for request {{.request_id}} (record {{.record_id}}) has been delivered by {{.delivery}}.`,
	},
}

// Renderer turns a template name and data into a subject and a body
type Renderer struct {
	templates map[string]messageTemplate
}

// NewRenderer parses the built-in templates
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]messageTemplate, len(definitions))}
	for name, def := range definitions {
		subject, err := template.New(name + ".subject").Parse(def[0])
		if err != nil {
			return nil, fmt.Errorf("parse %s subject: %w", name, err)
		}
		body, err := template.New(name + ".body").Parse(def[1])
		if err != nil {
			return nil, fmt.Errorf("parse %s body: %w", name, err)
		}
		r.templates[name] = messageTemplate{subject: subject, body: body}
	}
	return r, nil
}

// Render executes the named template against data
func (r *Renderer) Render(name string, data map[string]interface{}) (subject, body string, err error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	var buf bytes.Buffer
	if err := tmpl.subject.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	subject = strings.TrimSpace(buf.String())

	buf.Reset()
	if err := tmpl.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", name, err)
	}

	return subject, buf.String(), nil
}
