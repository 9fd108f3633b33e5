// Package email sends transactional mail over SMTP.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

var verificationTemplate = template.Must(template.New("verification").Parse(`
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h2>Bienvenue sur {{.AppName}}, {{.Name}} !</h2>
	<p>Merci de votre inscription. Cliquez sur le lien ci-dessous pour activer votre compte :</p>
	<p><a href="{{.Link}}" style="background-color: #2563eb; color: #fff; padding: 10px 20px; text-decoration: none; border-radius: 4px;">Activer mon compte</a></p>
	<p>Ce lien expire dans 24 heures.</p>
	<p>Si vous n'avez pas cree de compte, ignorez cet email.</p>
</body>
</html>
`))

// Mailer sends application mail. Implementations must be safe for
// concurrent use.
type Mailer interface {
	SendVerification(to, name, token string) error
}

// SMTPMailer sends mail over a plain SMTP relay.
type SMTPMailer struct {
	addr        string
	auth        smtp.Auth
	from        string
	appName     string
	frontendURL string
}

// NewSMTPMailer creates a mailer for the given relay. Auth is skipped when
// no user is configured, as with a local debug relay.
func NewSMTPMailer(host string, port int, user, password, from, appName, frontendURL string) *SMTPMailer {
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, password, host)
	}

	return &SMTPMailer{
		addr:        fmt.Sprintf("%s:%d", host, port),
		auth:        auth,
		from:        from,
		appName:     appName,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// SendVerification mails the account activation link.
func (m *SMTPMailer) SendVerification(to, name, token string) error {
	link := fmt.Sprintf("%s/verify-email/%s", m.frontendURL, token)

	body := &bytes.Buffer{}
	err := verificationTemplate.Execute(body, map[string]string{
		"AppName": m.appName,
		"Name":    name,
		"Link":    link,
	})
	if err != nil {
		return fmt.Errorf("failed to render verification email: %w", err)
	}

	subject := fmt.Sprintf("Activez votre compte %s", m.appName)
	return m.send(to, subject, body.String())
}

func (m *SMTPMailer) send(to, subject, htmlBody string) error {
	msg := &bytes.Buffer{}
	fmt.Fprintf(msg, "From: %s\r\n", m.from)
	fmt.Fprintf(msg, "To: %s\r\n", to)
	fmt.Fprintf(msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// SendAsync fires the mail in a goroutine and logs failures. Registration
// must not block on, or fail because of, the mail relay.
func SendAsync(logger *zap.Logger, send func() error) {
	go func() {
		if err := send(); err != nil {
			logger.Warn("failed to send email", zap.Error(err))
		}
	}()
}
