package mailbox

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractTextBodyMultipart(t *testing.T) {
	raw := strings.Join([]string{
		"From: chefe@empresa.com",
		"To: davi@empresa.com",
		"Subject: Reuniao",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="b1"`,
		"",
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Reuniao amanha as 14h.",
		"--b1",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>Reuniao amanha as 14h.</p>",
		"--b1--",
		"",
	}, "\r\n")

	got := extractTextBody([]byte(raw))
	if !strings.Contains(got, "Reuniao amanha as 14h.") {
		t.Errorf("text/plain part not extracted, got %q", got)
	}
	if strings.Contains(got, "<p>") {
		t.Errorf("html leaked into plain body: %q", got)
	}
}

func TestExtractTextBodySinglePart(t *testing.T) {
	raw := strings.Join([]string{
		"From: a@b.com",
		"To: c@d.com",
		"Subject: Entrega",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Entrega na sexta.",
		"",
	}, "\r\n")

	got := extractTextBody([]byte(raw))
	if !strings.Contains(got, "Entrega na sexta.") {
		t.Errorf("plain body not extracted, got %q", got)
	}
}

func TestFetchUnreadWithoutCredentials(t *testing.T) {
	c := NewClient(discardLogger(), "imap.example.com:993", "", "", 0)

	emails, err := c.FetchUnread(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emails) != 0 {
		t.Errorf("got %d emails, want 0", len(emails))
	}
}
