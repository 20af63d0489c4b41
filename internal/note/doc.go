// Package note implements the decision logic of a sync run.
//
// It has three pure stages:
//   - SelectLatestInternal picks the newest agent-only comment from a
//     newest-first comment list
//   - ExtractReference finds the first order reference token in free text
//   - ComposeBlock and MergeNote build the note block and append it to an
//     existing order note
//
// Nothing here performs I/O. The syncer package wires these stages to the
// ticket system and commerce platform clients.
package note
