package gomail

import (
	"context"
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/samandr77/crm/pkg/config"
)

type Client struct {
	cfg    config.Mail
	dialer *gomail.Dialer
}

func New(cfg config.Mail) *Client {
	dialer := gomail.NewDialer(cfg.MailerHost, cfg.MailerPort, cfg.MailerLogin, cfg.MailerPassword)

	dialer.TLSConfig = &tls.Config{
		ServerName: cfg.MailerHost,
		MinVersion: tls.VersionTLS12,
	}

	return &Client{
		cfg:    cfg,
		dialer: dialer,
	}
}

func (c *Client) message(to, subject, body string, isHTML bool) *gomail.Message {
	msg := gomail.NewMessage(
		gomail.SetCharset("UTF-8"),
		gomail.SetEncoding(gomail.Base64),
	)

	msg.SetAddressHeader("From", c.cfg.MailerFrom, c.cfg.MailerFromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)

	if isHTML {
		msg.SetBody("text/html", body)
	} else {
		msg.SetBody("text/plain", body)
	}

	return msg
}

// Send delivers one message over SMTP. gomail has no context support, so the dial runs in its own
// goroutine and Send returns as soon as ctx is done.
func (c *Client) Send(ctx context.Context, to, subject, body string, isHTML bool) error {
	msg := c.message(to, subject, body, isHTML)

	done := make(chan error, 1)

	go func() {
		done <- c.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}

		return nil
	case <-ctx.Done():
		return fmt.Errorf("send email to %s: %w", to, ctx.Err())
	}
}
