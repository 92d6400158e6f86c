// Package repository define el contrato de dominio de los backends de la
// comunidad, independiente del almacenamiento subyacente.
//
// Las implementaciones concretas viven en internal/graph e internal/store/pg.
//
// Arquitectura:
//
//	┌─────────────────────────────────────────────────────┐
//	│      community (Listing, Feed, Composer)            │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│        domain/repository (interfaces)               │
//	│              QuestionRepository                     │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	               ┌────────┴────────┐
//	               ▼                 ▼
//	        ┌─────────────┐   ┌─────────────┐
//	        │    graph    │   │  store/pg   │
//	        └─────────────┘   └─────────────┘
//
// Convenciones:
//   - Las lecturas reciben el credtier.Tier explícitamente
//   - Context siempre es el primer parámetro
//   - Errores de dominio están en errors.go
package repository
