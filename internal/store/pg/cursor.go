package pg

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/hostboard/internal/domain/repository"
)

// keyset es la posición de la última fila entregada.
type keyset struct {
	CreatedAt time.Time
	ID        string
}

// encodeCursor produce un token opaco "unixnano|id" en base64 url-safe.
func encodeCursor(k keyset) string {
	raw := strconv.FormatInt(k.CreatedAt.UnixNano(), 10) + "|" + k.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (keyset, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return keyset{}, fmt.Errorf("%w: %v", repository.ErrInvalidCursor, err)
	}
	ts, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return keyset{}, repository.ErrInvalidCursor
	}
	n, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return keyset{}, fmt.Errorf("%w: %v", repository.ErrInvalidCursor, err)
	}
	return keyset{CreatedAt: time.Unix(0, n).UTC(), ID: id}, nil
}
