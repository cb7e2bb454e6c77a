// Package store provides SQLite-backed durable storage for contact records.
//
// The store owns the "contacts" collection:
//   - id: INTEGER PRIMARY KEY AUTOINCREMENT, never reused after delete
//   - email: UNIQUE index, exact byte comparison
//   - name: non-unique index over the case-folded name, used by search
//
// # Consistency
//
// Every check-then-write sequence (email lookup followed by insert or update)
// runs inside one transaction on a single connection, so two overlapping
// callers can never both claim the same email. The unique index backs this
// up: a constraint violation from the engine is reported as
// contact.ErrDuplicateEmail.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=FULL: A committed write survives power loss
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - user_version=1: Single versioned layout, newer files are refused
package store
