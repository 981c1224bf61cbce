// Package variables extracts referenced variable names from template text and
// collects the names defined across variable-source files of an audit root.
package variables
