package infra

import (
	"bytes"
	"fmt"
	"net/smtp"

	"evot/internal/config"

	"github.com/jordan-wright/email"
)

// Adjunto is an in-memory email attachment.
type Adjunto struct {
	Nombre      string
	ContentType string
	Contenido   []byte
}

// Mensaje is one outgoing notification.
type Mensaje struct {
	Para     string
	Asunto   string
	Texto    string
	Adjuntos []Adjunto
}

// Mailer wraps SMTP configuration for sending notification emails.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Configurado reports whether an SMTP host was provided.
func (m *Mailer) Configurado() bool { return m.host != "" }

// Send delivers msg, attaching every Adjunto from memory.
func (m *Mailer) Send(msg Mensaje) error {
	if !m.Configurado() {
		return fmt.Errorf("mailer: SMTP_HOST no configurado")
	}

	e := email.NewEmail()
	e.From = m.from
	e.To = []string{msg.Para}
	e.Subject = msg.Asunto
	e.Text = []byte(msg.Texto)

	for _, a := range msg.Adjuntos {
		if _, err := e.Attach(bytes.NewReader(a.Contenido), a.Nombre, a.ContentType); err != nil {
			return fmt.Errorf("mailer: adjuntar %s: %w", a.Nombre, err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return e.Send(m.addr, auth)
}
