package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/DaviCMachado/Calendar-Agendator/internal/models"
)

func TestBuildEmbedsEmailVerbatim(t *testing.T) {
	email := models.NormalizedEmail{
		From:    "chefe@empresa.com",
		To:      "davi@empresa.com",
		Subject: "Reunião de planejamento",
		Body:    "Podemos conversar amanhã às 14h? Sala 3.",
	}
	today := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	got := Build(email, today)

	for _, want := range []string{
		email.From,
		email.To,
		email.Subject,
		email.Body,
		"2025-03-01",
		`{"eventos": []}`,
		"start_datetime",
		"summary",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildLeavesNoPlaceholders(t *testing.T) {
	email := models.NormalizedEmail{
		From:    "a@b.com",
		To:      "c@d.com",
		Subject: "Entrega",
		Body:    "Entrega na sexta às 9h.",
	}
	got := Build(email, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))

	if strings.Contains(got, "%s") || strings.Contains(got, "%!") {
		t.Errorf("prompt contains unsubstituted placeholder: %q", got)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	email := models.NormalizedEmail{From: "a@b.com", Subject: "x", Body: "y"}
	today := time.Date(2025, 6, 15, 8, 30, 0, 0, time.UTC)

	if Build(email, today) != Build(email, today) {
		t.Error("same inputs produced different prompts")
	}
}
