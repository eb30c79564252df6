package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/metrics"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "verification"}}<h2>Welcome to NextHire, {{.Name}}!</h2>
<p>Your verification code is:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px">{{.Code}}</p>
<p>Enter it on the verification page to activate your account.</p>{{end}}

{{define "reset"}}<h2>Password reset</h2>
<p>Hello {{.Name}}, we received a request to reset your password.</p>
<p><a href="{{.Link}}">Reset my password</a></p>
<p>This link expires in one hour. If you did not ask for it, ignore this email.</p>{{end}}

{{define "interview"}}<h2>Interview invitation</h2>
<p>Hello {{.Name}},</p>
<p>{{.Enterprise}} invited you to an interview for <strong>{{.JobTitle}}</strong>.</p>
<p>When: {{.When}}<br>Format: {{.MeetingType}}{{if .MeetingLink}}<br>Link: <a href="{{.MeetingLink}}">{{.MeetingLink}}</a>{{end}}</p>
{{if .Notes}}<p>{{.Notes}}</p>{{end}}
<p><a href="{{.Link}}">View the interview</a></p>{{end}}
`))

// Interview carries the fields rendered in an invitation.
type Interview struct {
	CandidateName string
	Enterprise    string
	JobTitle      string
	ScheduledAt   time.Time
	MeetingType   string
	MeetingLink   string
	Notes         string
	InterviewID   string
}

// Mailer renders the platform's transactional emails and hands them to a Sender.
type Mailer struct {
	sender      Sender
	frontendURL string
}

func NewMailer(sender Sender, frontendURL string) *Mailer {
	return &Mailer{sender: sender, frontendURL: strings.TrimRight(frontendURL, "/")}
}

func (m *Mailer) SendVerification(ctx context.Context, to, name, code string) error {
	return m.send(ctx, "verification", to, "Verify your NextHire account", map[string]string{
		"Name": name,
		"Code": code,
	})
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, token string) error {
	return m.send(ctx, "reset", to, "Reset your NextHire password", map[string]string{
		"Name": name,
		"Link": m.frontendURL + "/reset-password/" + token,
	})
}

func (m *Mailer) SendInterviewInvitation(ctx context.Context, to string, iv Interview) error {
	return m.send(ctx, "interview", to, "Interview invitation: "+iv.JobTitle, map[string]string{
		"Name":        iv.CandidateName,
		"Enterprise":  iv.Enterprise,
		"JobTitle":    iv.JobTitle,
		"When":        iv.ScheduledAt.UTC().Format("Monday 02 January 2006, 15:04 MST"),
		"MeetingType": iv.MeetingType,
		"MeetingLink": iv.MeetingLink,
		"Notes":       iv.Notes,
		"Link":        m.frontendURL + "/interviews/" + iv.InterviewID,
	})
}

func (m *Mailer) send(ctx context.Context, name, to, subject string, data any) error {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name, data); err != nil {
		return fmt.Errorf("render %s email: %w", name, err)
	}
	if err := m.sender.Send(ctx, to, subject, body.String()); err != nil {
		metrics.EmailsSent.WithLabelValues(name, "error").Inc()
		return err
	}
	metrics.EmailsSent.WithLabelValues(name, "ok").Inc()
	return nil
}
