package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

func RequestID(v string) zap.Field       { return zap.String("request_id", v) }
func Method(v string) zap.Field          { return zap.String("method", v) }
func Path(v string) zap.Field            { return zap.String("path", v) }
func Status(v int) zap.Field             { return zap.Int("status", v) }
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func ClientIP(v string) zap.Field        { return zap.String("client_ip", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - COLECCIONES REMOTAS
// =================================================================================

// Tier identifica el nivel de credencial usado en una lectura.
func Tier(v string) zap.Field { return zap.String("tier", v) }

// Cursor registra el token de continuación. Nunca es un secreto.
func Cursor(v string) zap.Field { return zap.String("cursor", v) }

// Operation es el nombre de la operación de escritura probada.
func Operation(v string) zap.Field { return zap.String("operation", v) }

// FieldKey es el campo del payload que lleva el contenido principal.
func FieldKey(v string) zap.Field { return zap.String("field_key", v) }

// Attempt es el índice (1-based) del intento de negociación.
func Attempt(v int) zap.Field { return zap.Int("attempt", v) }

func Slug(v string) zap.Field      { return zap.String("slug", v) }
func ContentID(v string) zap.Field { return zap.String("content_id", v) }
func UserID(v string) zap.Field    { return zap.String("user_id", v) }
func Backend(v string) zap.Field   { return zap.String("backend", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }
func Count(v int) zap.Field        { return zap.Int("count", v) }
func Key(v string) zap.Field       { return zap.String("key", v) }

func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
func String(key, v string) zap.Field    { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
