package negotiate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// maxMessage acota el mensaje de diagnóstico por intento.
const maxMessage = 240

// Outcome es el resultado de un intento.
type Outcome struct {
	Candidate Candidate       `json:"candidate"`
	Success   bool            `json:"success"`
	Response  json.RawMessage `json:"response,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// Trail es el AttemptTrail de una corrida: un Outcome por candidato probado,
// en orden. No se persiste.
type Trail []Outcome

// Failures cuenta los intentos fallidos.
func (t Trail) Failures() int {
	n := 0
	for _, o := range t {
		if !o.Success {
			n++
		}
	}
	return n
}

// String renderiza el trail para diagnóstico humano, un intento por línea.
func (t Trail) String() string {
	var b strings.Builder
	for i, o := range t {
		if i > 0 {
			b.WriteByte('\n')
		}
		status := "ok"
		if !o.Success {
			status = o.Message
		}
		fmt.Fprintf(&b, "%d. %s: %s", i+1, o.Candidate, status)
	}
	return b.String()
}

// ErrExhausted (SchemaNegotiationExhausted): ningún candidato tuvo éxito.
// Indica un problema de configuración, no un fallo transitorio.
var ErrExhausted = errors.New("negotiate: every write candidate failed")

// ErrNoCandidates se retorna si no hay candidatos configurados.
var ErrNoCandidates = errors.New("negotiate: no candidates configured")

// ExhaustedError lleva el trail completo para mostrar diagnósticos accionables.
type ExhaustedError struct {
	Trail Trail
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s (%d attempts)\n%s", ErrExhausted, len(e.Trail), e.Trail)
}

// Is permite errors.Is(err, ErrExhausted).
func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

// AbortedError se retorna si el contexto se cancela a mitad de la corrida.
type AbortedError struct {
	Trail Trail
	Err   error
}

func (e *AbortedError) Error() string {
	return fmt.Sprintf("negotiate: aborted after %d attempts: %v", len(e.Trail), e.Err)
}

func (e *AbortedError) Unwrap() error { return e.Err }

func shorten(msg string) string {
	msg = strings.Join(strings.Fields(msg), " ")
	if len(msg) <= maxMessage {
		return msg
	}
	return msg[:maxMessage-3] + "..."
}
