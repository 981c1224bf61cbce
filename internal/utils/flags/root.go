package flags

import "github.com/spf13/cobra"

const (
	// RootFlagName names the shared audit root flag.
	RootFlagName = "root"
	// RootFlagUsage describes the shared audit root flag.
	RootFlagUsage = "Collection root containing the roles directory (defaults to the positional argument or the working directory)"
)

// BindRootFlag attaches the --root flag to command and returns its value holder.
func BindRootFlag(command *cobra.Command) *string {
	rootValue := new(string)
	if command == nil {
		return rootValue
	}
	command.Flags().StringVar(rootValue, RootFlagName, "", RootFlagUsage)
	return rootValue
}

// RootCandidates orders the root inputs: the positional argument wins over the flag.
func RootCandidates(arguments []string, flagValue string) []string {
	candidates := make([]string, 0, len(arguments)+1)
	candidates = append(candidates, arguments...)
	return append(candidates, flagValue)
}
