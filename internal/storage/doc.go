// Package storage persists the listing snapshot and the cycle history.
//
// Two drivers implement Store:
//   - sqlite: a single embedded database file (modernc.org/sqlite, CGO-free).
//     This is the default.
//   - postgres: a shared PostgreSQL database through a pgx connection pool.
//
// Both drivers keep listings keyed by ID and replace the whole snapshot
// inside one transaction, so readers never observe a half-written snapshot.
package storage
