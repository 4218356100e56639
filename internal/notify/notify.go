// Package notify рассылает письма о назначениях и прогрессе. Доставка
// не гарантируется: ошибки пишутся в лог и не возвращаются вызывающему.
package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"sort"
	"strings"
)

type Message struct {
	To      []string
	Bcc     []string
	Subject string
	Text    string
	Headers map[string]string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc позволяет использовать функцию как Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// Dispatch отправляет письмо и глотает ошибку.
func Dispatch(ctx context.Context, s Sender, msg Message) {
	if s == nil {
		return
	}
	msg.To = Unique(msg.To)
	msg.Bcc = Unique(msg.Bcc)
	if len(msg.To) == 0 && len(msg.Bcc) == 0 {
		return
	}
	if err := s.Send(ctx, msg); err != nil {
		log.Printf("notification %q failed: %v", msg.Subject, err)
	}
}

// Unique убирает пустые адреса и дубли, сохраняя порядок.
func Unique(addrs []string) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		key := strings.ToLower(a)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

// LogSender только пишет письмо в лог; используется без настроенного SMTP.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	log.Printf("mail (not sent): to=%v bcc=%v subject=%q", msg.To, msg.Bcc, msg.Subject)
	return nil
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPSender struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}
}

// New выбирает SMTP, если указан хост, иначе LogSender.
func New(cfg SMTPConfig) Sender {
	if cfg.Host == "" {
		return LogSender{}
	}
	return NewSMTPSender(cfg)
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rcpt := append(append([]string{}, msg.To...), msg.Bcc...)
	if len(rcpt) == 0 {
		return fmt.Errorf("no recipients")
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	return s.send(addr, auth, s.cfg.From, rcpt, buildMIME(s.cfg.From, msg))
}

// bcc в заголовки не попадает
func buildMIME(from string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	if len(msg.To) > 0 {
		fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")

	keys := make([]string, 0, len(msg.Headers))
	for k := range msg.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, msg.Headers[k])
	}
	b.WriteString("\r\n")
	b.WriteString(msg.Text)
	return []byte(b.String())
}
