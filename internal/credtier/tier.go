// Package credtier ejecuta lecturas remotas bajo una lista ordenada de
// credenciales: si el primer nivel falla, o devuelve una colección vacía que
// podría deberse a permisos insuficientes, se reintenta con el siguiente.
//
// La distinción entre "vacío porque no hay datos" y "vacío por credencial
// incorrecta" es: error => fallo; vacío sin error en un nivel no final => se
// prueba el siguiente; vacío sin error en el nivel final => resultado válido.
package credtier

import (
	"errors"
	"fmt"
	"strings"
)

// Tier es un nivel de credencial. El orden numérico es el orden de prueba.
type Tier int

const (
	// Primary es la credencial pública (API key).
	Primary Tier = iota
	// Secondary es la credencial de usuario o de servicio.
	Secondary
)

// DefaultTiers es el orden usado por las lecturas del listado.
var DefaultTiers = []Tier{Primary, Secondary}

func (t Tier) String() string {
	switch t {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier acepta "primary" o "secondary".
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary":
		return Primary, nil
	case "secondary":
		return Secondary, nil
	}
	return 0, fmt.Errorf("credtier: unknown tier %q", s)
}

// ErrExhausted indica que ningún nivel produjo un resultado confiable.
var ErrExhausted = errors.New("credtier: all credential tiers failed")

// TierFailure describe el fallo de un nivel (TransientReadError).
type TierFailure struct {
	Tier  Tier
	Err   error // nil si el nivel devolvió vacío
	Empty bool
}

func (f TierFailure) String() string {
	if f.Empty {
		return f.Tier.String() + ": empty result"
	}
	return fmt.Sprintf("%s: %v", f.Tier, f.Err)
}

// ExhaustedError es el ExhaustedCredentialsError: todos los niveles fallaron.
// Es reintentable por acción del usuario.
type ExhaustedError struct {
	Failures []TierFailure
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.String()
	}
	return ErrExhausted.Error() + " (" + strings.Join(parts, "; ") + ")"
}

// Is permite errors.Is(err, ErrExhausted).
func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

// Unwrap expone el error del último nivel.
func (e *ExhaustedError) Unwrap() error {
	for i := len(e.Failures) - 1; i >= 0; i-- {
		if e.Failures[i].Err != nil {
			return e.Failures[i].Err
		}
	}
	return nil
}
