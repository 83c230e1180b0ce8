package mail

import (
	"context"
	"net"
	"testing"
	"time"
)

// silentServer accepts connections and never writes a byte, like an
// implicit-TLS endpoint waiting for a handshake the client will not start.
func silentServer(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestSMTPMailer_SilentServerDoesNotHang(t *testing.T) {
	t.Parallel()
	port := silentServer(t)

	m, err := NewSMTP(SMTPConfig{
		Host:    "127.0.0.1",
		Port:    port,
		From:    "noreply@example.com",
		Timeout: 500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewSMTP: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.Send(ctx, "alice@example.com", "subject", "body") }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("want error from a server that never greets")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Send never returned; transport must be bounded")
	}
}

func TestNewSMTP_DefaultTimeout(t *testing.T) {
	t.Parallel()
	if _, err := NewSMTP(SMTPConfig{Host: "smtp.example.com", Port: 465, From: "noreply@example.com"}); err != nil {
		t.Fatalf("NewSMTP with zero timeout: %v", err)
	}
}
