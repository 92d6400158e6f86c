package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCursor indica un cursor que el backend no reconoce.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrUnauthorized indica que la credencial del tier fue rechazada.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnknownOperation indica un candidato de escritura que el backend no soporta.
	ErrUnknownOperation = errors.New("unknown operation")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
