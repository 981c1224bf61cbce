// Package roles discovers roles under an audit root and inspects each one.
//
// Discoverer lists role directories and playbook files, Validator checks the
// expected skeleton and the task/handler consistency of a role, and
// PlaceholderScanner flags files that still carry incomplete-work markers.
package roles
