package session

import (
	"errors"
	"fmt"

	"github.com/calvinalkan/cycle-count/internal/count"
)

// Text is a user-facing message in both supported languages.
// Either side may hold fmt verbs; see [Prefs.Sprintf].
type Text struct {
	En string
	Es string
}

// Sprintf formats the message for the session language.
func (p Prefs) Sprintf(m Text, args ...any) string {
	return fmt.Sprintf(p.T(m.En, m.Es), args...)
}

// Messages shown to workers.
var (
	MsgAssigned            = Text{"Assigned %s to %s (ID %s)", "Asignado %s a %s (ID %s)"}
	MsgSubmitted           = Text{"Submitted (ID %s). Returning to My Assignments...", "Enviado (ID %s). Regresando a Mis Asignaciones..."}
	MsgNoActiveAssignments = Text{"No active assignments.", "No hay asignaciones activas."}
	MsgNoSubmissions       = Text{"No submissions yet.", "Sin envíos todavía."}
	MsgLanguageSet         = Text{"Language set to English", "Idioma cambiado a Español"}
	MsgLocked              = Text{"locked", "bloqueado"}
)

var errorTexts = []struct {
	err  error
	text Text
}{
	{count.ErrAssigneeRequired, Text{"Assignee and location are required.", "Se requieren responsable y ubicación."}},
	{count.ErrLocationRequired, Text{"Assignee and location are required.", "Se requieren responsable y ubicación."}},
	{count.ErrAssignmentIDRequired, Text{"Assignment ID and Counted QTY are required.", "Se requieren ID de asignación y cantidad."}},
	{count.ErrCountedQtyRequired, Text{"Assignment ID and Counted QTY are required.", "Se requieren ID de asignación y cantidad."}},
	{count.ErrCountedQtyNotNumber, Text{"Counted QTY must be a number.", "Cantidad debe ser numérica."}},
	{count.ErrCounterRequired, Text{"Counter is required.", "Se requiere contador."}},
	{count.ErrUnknownWorker, Text{"Unknown worker.", "Trabajador desconocido."}},
	{count.ErrInvalidIssueType, Text{"Invalid issue type.", "Tipo de problema inválido."}},
	{count.ErrUnsupportedLang, Text{"Unsupported language.", "Idioma no soportado."}},
}

// ErrorText returns the localized message for a validation error, or the
// error's own text when there is none.
func (p Prefs) ErrorText(err error) string {
	for _, e := range errorTexts {
		if errors.Is(err, e.err) {
			return p.T(e.text.En, e.text.Es)
		}
	}

	return err.Error()
}
