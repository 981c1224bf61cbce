// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with lifecycle logging and exit-code
// classification; OSCommandRunner is the os/exec backed runner.
package execshell
