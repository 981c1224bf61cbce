// Package audit cross-references the roles of an audit root and writes the
// validation report.
//
// Service.Run is the single entry point: it collects defined variables once,
// validates, scans and resolves every role, and writes a Markdown report (and
// optionally a YAML summary). A root without a roles directory is terminal and
// yields ErrRolesDirectoryMissing alongside a report stating the absence.
// CommandBuilder wires the service into the `audit` Cobra command.
package audit
