// Package negotiate implementa el protocolo "probe-and-commit" para escrituras
// cuyo schema no está confirmado: una lista ordenada de candidatos (nombre de
// operación + campo que lleva el contenido) se prueba en estricta secuencia
// hasta que uno devuelve una respuesta válida.
//
// Nunca hay dos escrituras en vuelo para un mismo submit, y nunca se reintenta
// un candidato: el primer éxito es el único resultado sobre el que se actúa.
package negotiate

import (
	"fmt"
	"strings"
)

// Candidate es una hipótesis sobre el schema de escritura.
type Candidate struct {
	OperationID     string `json:"operation" yaml:"operation"`
	PayloadFieldKey string `json:"field" yaml:"field"`
}

func (c Candidate) String() string {
	return c.OperationID + "(" + c.PayloadFieldKey + ")"
}

// IsZero indica si el candidato está vacío.
func (c Candidate) IsZero() bool {
	return c.OperationID == "" && c.PayloadFieldKey == ""
}

// ParseCandidate acepta "operation:field" (ej: "createQuestion:body").
func ParseCandidate(s string) (Candidate, error) {
	op, field, ok := strings.Cut(strings.TrimSpace(s), ":")
	op, field = strings.TrimSpace(op), strings.TrimSpace(field)
	if !ok || op == "" || field == "" {
		return Candidate{}, fmt.Errorf("negotiate: candidate %q must be operation:field", s)
	}
	return Candidate{OperationID: op, PayloadFieldKey: field}, nil
}

// ParseCandidates parsea una lista separada por comas.
func ParseCandidates(s string) ([]Candidate, error) {
	var out []Candidate
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := ParseCandidate(part)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// DefaultCandidates es la lista estática de hipótesis plausibles para la
// creación de preguntas de la comunidad, en orden de preferencia.
var DefaultCandidates = []Candidate{
	{OperationID: "createQuestion", PayloadFieldKey: "body"},
	{OperationID: "createQuestion", PayloadFieldKey: "content"},
	{OperationID: "createCommunityQuestion", PayloadFieldKey: "body"},
	{OperationID: "createCommunityQuestion", PayloadFieldKey: "content"},
	{OperationID: "createPost", PayloadFieldKey: "content"},
	{OperationID: "createPost", PayloadFieldKey: "text"},
}
