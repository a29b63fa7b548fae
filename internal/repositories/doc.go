// Package repositories implements SQLite persistence for the reorder run ledger.
//
// Key Implementations:
//   - [RunRepository] : one row per playlist run with status, counts, backup path and error
//
// The ledger stores run outcomes only. Track metadata is never cached between runs.
package repositories
