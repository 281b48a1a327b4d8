package utils

import (
	"StudyVault/config"
	"crypto/tls"
	"errors"
	"fmt"
	"html"
	"net/smtp"

	"github.com/jordan-wright/email"
)

var ErrSMTPConfig = errors.New("smtp config missing")

// Mailer sends notification mail over SMTP.
type Mailer struct {
	host     string
	port     string
	user     string
	pass     string
	from     string
	useTLS   bool
	startTLS bool
}

func NewMailer(cfg config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		pass:     cfg.SMTPPass,
		from:     cfg.SMTPFrom,
		useTLS:   cfg.SMTPTLS || cfg.SMTPPort == "465",
		startTLS: cfg.SMTPStartTLS,
	}
}

// Configured reports whether every SMTP setting is present.
func (m *Mailer) Configured() bool {
	return m.host != "" && m.port != "" && m.user != "" && m.pass != "" && m.from != ""
}

// ShareNoticeMessage builds the notice sent to a share recipient.
func ShareNoticeMessage(from, to, fileName, sharedBy string) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{to}
	e.Subject = "A file was shared with you"
	e.HTML = []byte(fmt.Sprintf(`
		<h2>New shared file</h2>
		<p><b>%s</b> shared <b>%s</b> with you.</p>
		<p>Sign in and open "Shared with me" to view it.</p>
	`, html.EscapeString(sharedBy), html.EscapeString(fileName)))
	return e
}

// ActivationMessage builds the mail carrying the account activation link.
func ActivationMessage(from, to, link string) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{to}
	e.Subject = "Account Activation"
	e.HTML = []byte(`
		<h2>Welcome</h2>
		<p>Please click the link below to activate your account:</p>
		<a href="` + html.EscapeString(link) + `">Activate account</a>
		<p>The link is valid for 10 minutes.</p>
	`)
	return e
}

// SendActivation mails the activation link to a pending registration.
func (m *Mailer) SendActivation(to, link string) error {
	if !m.Configured() {
		return ErrSMTPConfig
	}
	return m.send(ActivationMessage(m.from, to, link))
}

// SendShareNotice tells to that sharedBy shared fileName with them.
func (m *Mailer) SendShareNotice(to, fileName, sharedBy string) error {
	if !m.Configured() {
		return ErrSMTPConfig
	}
	return m.send(ShareNoticeMessage(m.from, to, fileName, sharedBy))
}

func (m *Mailer) send(e *email.Email) error {
	addr := m.host + ":" + m.port
	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	tlsConfig := &tls.Config{ServerName: m.host}
	if m.useTLS {
		return e.SendWithTLS(addr, auth, tlsConfig)
	}
	if m.startTLS {
		return e.SendWithStartTLS(addr, auth, tlsConfig)
	}
	return e.Send(addr, auth)
}
