// Package contact defines the Contact record and the error taxonomy shared by
// the store, the importer and the CLI.
//
// This package contains type definitions only. Every other internal package
// imports contact; contact imports nothing internal.
//
// Key constraints:
//   - ID is assigned by the store; zero means "not yet persisted"
//   - Email is unique across the store, compared byte for byte
//   - Name matching folds case (Unicode simple folding on NFC text)
package contact
