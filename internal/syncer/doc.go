// Package syncer runs one ticket-to-order note sync.
//
// A Syncer is built from three collaborator interfaces (CommentSource,
// UserDirectory, OrderStore) and runs the pipeline in a single linear pass:
// select the latest internal comment, resolve its author, extract the order
// reference, look up the order, then compose and append the note block.
// The first error stops the run; nothing is retried.
package syncer
