package mail

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
)

// ErrUnknownTemplate is returned when Render is asked for a template that does not exist.
var ErrUnknownTemplate = errors.New("unknown email template")

const (
	TemplateWelcome             = "welcome"
	TemplateDepositConfirmed    = "deposit_confirmed"
	TemplateDepositRejected     = "deposit_rejected"
	TemplateWithdrawalApproved  = "withdrawal_approved"
	TemplateWithdrawalRejected  = "withdrawal_rejected"
	TemplateInvestmentConfirmed = "investment_confirmed"
	TemplateGeneric             = "generic"
)

type emailTemplate struct {
	subject string
	body    *template.Template
}

const layout = `<!doctype html><html><body style="font-family:Arial,sans-serif;color:#1f2937">
<p>Hello {{if .name}}{{.name}}{{else}}there{{end}},</p>
{{template "content" .}}
<p style="color:#6b7280;font-size:12px">This is an automated message, please do not reply.</p>
</body></html>`

var templates = map[string]emailTemplate{
	TemplateWelcome: mustTemplate("Welcome aboard",
		`<p>Your investor account is ready. Fund your wallet with a bank transfer to start investing.</p>
{{if .referral_code}}<p>Share your referral code <strong>{{.referral_code}}</strong> to earn commission.</p>{{end}}`),
	TemplateDepositConfirmed: mustTemplate("Deposit confirmed",
		`<p>Your bank transfer <strong>{{.reference}}</strong> of {{.amount}} has been confirmed and credited to your wallet.</p>
<p>New balance: {{.balance}}</p>`),
	TemplateDepositRejected: mustTemplate("Deposit could not be confirmed",
		`<p>We could not confirm your bank transfer <strong>{{.reference}}</strong> of {{.amount}}.</p>
{{if .note}}<p>Reason: {{.note}}</p>{{end}}`),
	TemplateWithdrawalApproved: mustTemplate("Withdrawal approved",
		`<p>Your withdrawal of {{.amount}} to {{.bank_name}} has been approved and is on its way.</p>`),
	TemplateWithdrawalRejected: mustTemplate("Withdrawal rejected",
		`<p>Your withdrawal request of {{.amount}} was rejected. The funds remain in your wallet.</p>
{{if .note}}<p>Reason: {{.note}}</p>{{end}}`),
	TemplateInvestmentConfirmed: mustTemplate("Investment confirmed",
		`<p>You invested {{.amount}} in <strong>{{.project}}</strong>.</p>
<p>Expected return {{.expected_return}}, maturing on {{.matures_at}}.</p>`),
	TemplateGeneric: mustTemplate("{{.subject}}",
		`<p>{{.message}}</p>`),
}

func mustTemplate(subject, content string) emailTemplate {
	t := template.Must(template.New("layout").Parse(layout))
	template.Must(t.New("content").Parse(content))
	return emailTemplate{subject: subject, body: t}
}

// Render builds a message from a named template. Generic messages take their
// subject from data["subject"].
func Render(name, to string, data map[string]any) (Message, error) {
	tpl, ok := templates[name]
	if !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	if data == nil {
		data = map[string]any{}
	}

	var buf bytes.Buffer
	if err := tpl.body.ExecuteTemplate(&buf, "layout", data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", name, err)
	}

	subject := tpl.subject
	if name == TemplateGeneric {
		subject, _ = data["subject"].(string)
		if subject == "" {
			subject = "Account update"
		}
	}
	return Message{To: to, Subject: subject, HTML: buf.String()}, nil
}
