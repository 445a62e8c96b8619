package notify

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/estatewatch/internal/model"
)

func TestNewEmailNotifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     EmailConfig
		wantErr error
	}{
		{
			name:    "missing host",
			cfg:     EmailConfig{To: []string{"a@example.com"}},
			wantErr: ErrNoSMTPHost,
		},
		{
			name:    "missing recipients",
			cfg:     EmailConfig{Host: "smtp.example.com"},
			wantErr: ErrNoRecipients,
		},
		{
			name:    "unknown TLS policy",
			cfg:     EmailConfig{Host: "smtp.example.com", To: []string{"a@example.com"}, TLSPolicy: "sometimes"},
			wantErr: ErrInvalidTLSPolicy,
		},
		{
			name: "valid",
			cfg: EmailConfig{
				Host:      "smtp.example.com",
				Port:      587,
				Username:  "watcher@example.com",
				Password:  "secret",
				To:        []string{"a@example.com"},
				TLSPolicy: TLSOpportunistic,
				Timeout:   5 * time.Second,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewEmailNotifier(tt.cfg)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEmailNotifier_buildMsg(t *testing.T) {
	t.Parallel()

	n, err := NewEmailNotifier(EmailConfig{
		Host:     "smtp.example.com",
		Username: "watcher@example.com",
		To:       []string{"a@example.com", "b@example.com"},
	})
	if err != nil {
		t.Fatalf("NewEmailNotifier failed: %v", err)
	}

	msg, err := NewMessage(model.DiffResult{}, cycleTime, linkBase)
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}

	m, err := n.buildMsg(msg)
	if err != nil {
		t.Fatalf("buildMsg failed: %v", err)
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	raw := buf.String()

	for _, want := range []string{
		"Subject: 07/03/2026 09:05:01 Data",
		"watcher@example.com",
		"a@example.com",
		"b@example.com",
		"text/html",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q:\n%s", want, raw)
		}
	}
}

func TestEmailNotifier_NotifyUnreachable(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	n, err := NewEmailNotifier(EmailConfig{
		Host:      "127.0.0.1",
		Port:      port,
		From:      "watcher@example.com",
		To:        []string{"a@example.com"},
		TLSPolicy: TLSNone,
		Timeout:   time.Second,
	})
	if err != nil {
		t.Fatalf("NewEmailNotifier failed: %v", err)
	}

	err = n.Notify(context.Background(), Message{Subject: "s", HTMLBody: "<p>b</p>"})
	if !errors.Is(err, model.ErrNotify) {
		t.Errorf("expected ErrNotify, got %v", err)
	}
}
