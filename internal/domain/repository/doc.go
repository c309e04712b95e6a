// Package repository define las interfaces de repositorio de dominio.
//
// Estas interfaces representan contratos de negocio, independientes del
// almacenamiento subyacente (PostgreSQL, memoria).
//
// Las implementaciones concretas viven en internal/store/adapters/.
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - TenantID se pasa explícitamente en cada método que toca datos de un
//     tenant; nunca se deduce de estado global
//   - Una mutación cuya fila objetivo pertenece a otro tenant falla con
//     ErrTenantViolation, nunca filtra en silencio
//   - Errores de dominio están en errors.go
package repository
