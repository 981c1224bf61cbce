// Package cli constructs the roleaudit command-line interface. It wires the
// Cobra command hierarchy to the layered configuration loader and the zap
// logger, and hands each subcommand its configuration section through
// provider closures.
package cli
