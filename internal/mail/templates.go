package mail

import (
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
)

type view struct {
	Name          string
	Code          string
	ValidMinutes  int
	AppointmentID string
	Day           string
	Start         string
	End           string
}

func newView(to Recipient, d Data, loc *time.Location) view {
	name := strings.TrimSpace(to.Name)
	if name == "" {
		name = "there"
	}
	v := view{
		Name:          name,
		Code:          d.Code,
		ValidMinutes:  int(d.ValidFor / time.Minute),
		AppointmentID: d.AppointmentID,
	}
	if !d.SlotStart.IsZero() {
		start := d.SlotStart.In(loc)
		v.Day = start.Format("Monday, 2 January 2006")
		v.Start = start.Format("15:04 MST")
	}
	if !d.SlotEnd.IsZero() {
		v.End = d.SlotEnd.In(loc).Format("15:04")
	}
	return v
}

type template struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

func newTemplate(kind Kind, subject, text, html string) template {
	name := string(kind)
	return template{
		subject: texttemplate.Must(texttemplate.New(name + ".subject").Parse(subject)),
		text:    texttemplate.Must(texttemplate.New(name + ".txt").Parse(text)),
		html:    htmltemplate.Must(htmltemplate.New(name + ".html").Parse(html)),
	}
}

var templates = map[Kind]template{
	KindOTP: newTemplate(KindOTP,
		`Your verification code`,
		`Hi {{.Name}},

Your verification code is {{.Code}}.
{{- if .ValidMinutes}} It expires in {{.ValidMinutes}} minutes.{{end}}

Ignore this email if you did not create an account.
`,
		`<p>Hi {{.Name}},</p>
<p>Your verification code is <strong>{{.Code}}</strong>.{{if .ValidMinutes}} It expires in {{.ValidMinutes}} minutes.{{end}}</p>
<p>Ignore this email if you did not create an account.</p>
`),

	KindReminder: newTemplate(KindReminder,
		`Reminder: consultation at {{.Start}}`,
		`Hi {{.Name}},

This is a reminder that your consultation starts at {{.Start}} on {{.Day}}.

Appointment: {{.AppointmentID}}
`,
		`<p>Hi {{.Name}},</p>
<p>This is a reminder that your consultation starts at <strong>{{.Start}}</strong> on {{.Day}}.</p>
<p style="color:#666">Appointment: {{.AppointmentID}}</p>
`),

	KindCompleted: newTemplate(KindCompleted,
		`Your consultation on {{.Day}} is complete`,
		`Hi {{.Name}},

Your consultation on {{.Day}} ({{.Start}} to {{.End}}) has been marked as completed. Thank you.

Appointment: {{.AppointmentID}}
`,
		`<p>Hi {{.Name}},</p>
<p>Your consultation on {{.Day}} ({{.Start}} to {{.End}}) has been marked as completed. Thank you.</p>
<p style="color:#666">Appointment: {{.AppointmentID}}</p>
`),
}
