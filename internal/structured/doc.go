// Package structured parses YAML (and JSON) documents into a recursive Value
// variant made of ordered mappings, sequences and scalars.
//
// Loader distinguishes a missing file, an unreadable file, a document that
// fails to parse and a document that parses to nothing; the last normalizes to
// an empty Mapping so callers can tell "defines zero variables" apart from
// "corrupt variable file".
package structured
