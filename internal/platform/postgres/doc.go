// Package postgres provides PostgreSQL implementations of the task and image
// stores defined in internal/store, together with the embedded goose
// migrations that create their schema. Connections go through database/sql
// with the pgx stdlib driver.
package postgres
