// Package services wraps the external collaborators the chat core talks to:
// outbound email, binary uploads, and the generative-AI completion endpoint.
// All of them are plain call/response services with no state of their own.
package services

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog/log"
)

type Mailer interface {
	SendOTP(ctx context.Context, email, code string) error
}

type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPMailer(host, port, from, password string) *SMTPMailer {
	m := &SMTPMailer{
		addr: host + ":" + port,
		from: from,
	}
	if password != "" {
		m.auth = smtp.PlainAuth("", from, password, host)
	}
	return m
}

func (m *SMTPMailer) SendOTP(ctx context.Context, email, code string) error {
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Your login code\r\n\r\nYour one-time code is %s. It expires in 10 minutes.\r\n",
		m.from, email, code)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{email}, []byte(body)); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	log.Info().Str("email", email).Msg("otp mail sent")
	return nil
}
