// Package repositories implements SQLite persistence for the client's own state.
//
// The catalog itself lives on the backend and is never cached here. The local store only
// keeps what the client needs between runs.
//
// Key Implementations:
//   - [SessionRepository] : saved logins, one per backend and username
//   - [ImportLogRepository] : audit trail of external catalog imports
//
// Import entries carry a sequence number from [NextSequence], which atomically increments
// a per-table counter kept in a dedicated sequence table.
package repositories
