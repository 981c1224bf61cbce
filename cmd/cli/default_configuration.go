package cli

import _ "embed"

//go:embed default_config.yaml
var embeddedDefaultConfiguration []byte

// EmbeddedDefaultConfiguration returns a copy of the built-in configuration and its format.
// Every key the commands read is present so environment overrides always resolve.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return append([]byte(nil), embeddedDefaultConfiguration...), configurationTypeConstant
}
