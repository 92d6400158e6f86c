// Package community orquesta las páginas de la comunidad:
//
//   - Listing: listado con scroll infinito y búsqueda local (una instancia por vista)
//   - Feed: fuente de páginas del lado del servidor, con la primera página cacheada
//   - Composer: flujo de creación (validación, sesión, slug, negociación de escritura)
package community
