// Package prompt renders the extraction instruction sent to the
// inference service for each e-mail.
package prompt

import (
	"fmt"
	"time"

	"github.com/DaviCMachado/Calendar-Agendator/internal/models"
)

// instructionTemplate asks the model to report only events with an
// explicit day and/or time and to answer with nothing but a JSON
// object of the shape {"eventos": [...]}. The anchor date lets the
// model resolve relative expressions like "amanhã".
const instructionTemplate = "Abaixo está o conteúdo de um e-mail. " +
	"Verifique se há possíveis reuniões, eventos, tarefas, entregas ou trabalhos que possam ser agendados. " +
	"Somente considere se houver um horário e/ou dia especificado. " +
	"Se houver, responda SOMENTE com um objeto JSON contendo uma lista de eventos. " +
	"Cada evento deve ter 'start_datetime' (formato 'YYYY-MM-DDTHH:MM:SS-03:00') e 'summary' (descrição). " +
	"Se não houver eventos, responda com um JSON com uma lista vazia: {\"eventos\": []}. " +
	"Considere a data de hoje como: %s. Segue o e-mail:\n\n" +
	"De: %s\nPara: %s\nAssunto: %s\n\nConteúdo:\n%s"

// Build renders the instruction for one e-mail. It is a pure function
// of its inputs: the result is fully substituted and deterministic
// given the e-mail and the anchor date.
func Build(email models.NormalizedEmail, today time.Time) string {
	return fmt.Sprintf(
		instructionTemplate,
		today.Format("2006-01-02"),
		email.From,
		email.To,
		email.Subject,
		email.Body,
	)
}
