package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func TestDispatchSwallowsErrors(t *testing.T) {
	called := false
	s := SenderFunc(func(ctx context.Context, msg Message) error {
		called = true
		return errors.New("smtp down")
	})

	// не должно паниковать и ничего не возвращает
	Dispatch(context.Background(), s, Message{To: []string{"a@example.com"}, Subject: "x"})
	if !called {
		t.Fatalf("expected sender to be called")
	}
}

func TestDispatchSkipsEmptyRecipients(t *testing.T) {
	s := SenderFunc(func(ctx context.Context, msg Message) error {
		t.Fatalf("sender must not be called without recipients")
		return nil
	})
	Dispatch(context.Background(), s, Message{To: []string{"", "  "}, Subject: "x"})
	Dispatch(context.Background(), nil, Message{To: []string{"a@example.com"}})
}

func TestUnique(t *testing.T) {
	got := Unique([]string{"a@x.com", "", "A@x.com", "b@x.com", " b@x.com "})
	if len(got) != 2 || got[0] != "a@x.com" || got[1] != "b@x.com" {
		t.Fatalf("unexpected unique result %v", got)
	}
}

func TestSMTPSenderBuildsMessage(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "noreply@example.com"})

	var gotAddr string
	var gotTo []string
	var gotBody string
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotTo = to
		gotBody = string(msg)
		return nil
	}

	err := s.Send(context.Background(), Message{
		To:      []string{"inbox@example.com"},
		Bcc:     []string{"admin@example.com"},
		Subject: "Progress Update",
		Text:    "50%",
		Headers: map[string]string{"X-Priority": "1"},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Fatalf("unexpected addr %q", gotAddr)
	}
	if len(gotTo) != 2 {
		t.Fatalf("expected to+bcc recipients, got %v", gotTo)
	}
	if strings.Contains(gotBody, "admin@example.com") {
		t.Fatalf("bcc must not appear in headers")
	}
	if !strings.Contains(gotBody, "Subject: Progress Update\r\n") || !strings.Contains(gotBody, "X-Priority: 1\r\n") {
		t.Fatalf("missing headers in %q", gotBody)
	}
}

func TestNewFallsBackToLog(t *testing.T) {
	if _, ok := New(SMTPConfig{}).(LogSender); !ok {
		t.Fatalf("expected LogSender without host")
	}
	if _, ok := New(SMTPConfig{Host: "h"}).(*SMTPSender); !ok {
		t.Fatalf("expected SMTPSender with host")
	}
}
