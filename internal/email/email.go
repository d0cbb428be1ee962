package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strconv"

	"github.com/FikranSE/bookingapp/config"
)

var ErrNotConfigured = errors.New("smtp is not configured")

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Sender delivers mail over SMTP with PLAIN auth.
type Sender struct {
	host          string
	addr          string
	username      string
	password      string
	from          string
	testRecipient string
	sendMail      sendMailFunc
}

func NewSender(cfg config.SMTPConfig) *Sender {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &Sender{
		host:          cfg.Host,
		addr:          cfg.Host + ":" + strconv.Itoa(cfg.Port),
		username:      cfg.Username,
		password:      cfg.Password,
		from:          from,
		testRecipient: cfg.TestRecipient,
		sendMail:      smtp.SendMail,
	}
}

func (s *Sender) Send(ctx context.Context, msg Message) error {
	if s.host == "" || s.from == "" {
		return ErrNotConfigured
	}
	if msg.To == "" {
		return errors.New("email recipient is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// A configured test recipient receives every message.
	recipient := msg.To
	if s.testRecipient != "" {
		recipient = s.testRecipient
		if recipient != msg.To {
			msg.Text += fmt.Sprintf("\n\n[TEST MODE] Original recipient: %s\n", msg.To)
		}
	}

	body, err := s.compose(recipient, msg)
	if err != nil {
		return fmt.Errorf("compose email: %w", err)
	}

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	if err := s.sendMail(s.addr, auth, s.from, []string{recipient}, body); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", recipient, err)
	}
	return nil
}

func (s *Sender) compose(to string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", s.from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
