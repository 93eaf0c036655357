package outreach

import (
	"bytes"
	"fmt"
	"text/template"

	"holly/internal/lead"
	id "holly/pkg/domain"
)

// messageTemplate holds the per-channel copy for one template name.
type messageTemplate struct {
	subject string
	body    string
}

// defaultTemplates is the built-in outreach copy. The policy engine proposes
// a template by name; rendering substitutes the lead's details.
var defaultTemplates = map[string]messageTemplate{
	"intro": {
		subject: "Quick question about your mortgage plans",
		body: "Hi {{.FirstName}}, thanks for reaching out about your mortgage options. " +
			"I'd love to learn a bit more about what you're looking for. " +
			"When would be a good time for a quick chat?",
	},
	"follow_up": {
		subject: "Following up on your mortgage enquiry",
		body: "Hi {{.FirstName}}, just checking in on your mortgage enquiry. " +
			"Happy to answer any questions or run some numbers for you.",
	},
	"nurture": {
		subject: "Still here when you're ready",
		body: "Hi {{.FirstName}}, rates and programs change all the time. " +
			"When you're ready to revisit your mortgage plans, I'm happy to help.",
	},
}

// templateData is the subset of lead fields exposed to templates.
type templateData struct {
	FirstName string
	LastName  string
}

// Render produces the payload for a named template. Unknown template names
// are an error so policy/template drift is caught loudly in tests.
func Render(name string, l *lead.Lead, ch id.Channel) (Payload, error) {
	mt, ok := defaultTemplates[name]
	if !ok {
		return Payload{}, fmt.Errorf("unknown outreach template %q", name)
	}

	tmpl, err := template.New(name).Parse(mt.body)
	if err != nil {
		return Payload{}, fmt.Errorf("parse template %q: %w", name, err)
	}

	data := templateData{FirstName: l.FirstName, LastName: l.LastName}
	if data.FirstName == "" {
		data.FirstName = "there"
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Payload{}, fmt.Errorf("render template %q: %w", name, err)
	}

	p := Payload{Body: buf.String()}
	if ch == id.ChannelEmail {
		p.Subject = mt.subject
	}
	return p, nil
}
