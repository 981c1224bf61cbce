// Package content reads audited files on a best-effort basis.
//
// Reader never returns an error from Read; every outcome, including I/O and
// decoding failures, is reported through ReadResult so call sites decide whether
// a failure becomes a finding or is logged and skipped.
package content
