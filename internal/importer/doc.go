// Package importer merges externally supplied contacts into the store.
//
// Import is additive only:
//   - A candidate whose email already exists is skipped, never merged
//   - A candidate missing a required field, or one that is not a contact
//     object at all, is rejected and reported
//   - Every other candidate is inserted with a store-assigned ID
//
// Each insertion is its own transaction. If a batch stops part way (context
// cancelled, storage failure) the rows already committed stay committed and
// the partial Report is returned alongside the error.
package importer
