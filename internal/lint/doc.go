// Package lint runs ansible-lint against an audit root and records how many
// violations each rule produced.
package lint
