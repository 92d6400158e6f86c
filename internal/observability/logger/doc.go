// Package logger expone el logger zap de hostboard con scoping por contexto.
//
// # Decisiones
//
//   - Singleton: una sola instancia, inicializada con Init() desde main.
//   - Scoping: cada request (o cada vista del browser) lleva su propio logger
//     con request_id / component en el contexto, sin crear un core nuevo.
//   - Entornos: "dev" escribe en consola con colores, "prod" escribe JSON.
//   - Tests: Replace() permite inyectar un logger observado (zaptest/observer).
//
// # Uso
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Component("pager"), logger.Op("LoadMore"))
//	log.Info("page appended", logger.Count(len(items)), logger.Cursor(next))
package logger
