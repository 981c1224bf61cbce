package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	toggleTrueCanonicalValue               = "true"
	toggleFalseCanonicalValue              = "false"
	toggleTypeNameConstant                 = "bool"
	toggleParseErrorTemplate               = "invalid toggle value %q"
	toggleUsageTemplate                    = "`%s` %s"
	toggleArgumentTruePlaceholderConstant  = "<YES|no>"
	toggleArgumentFalsePlaceholderConstant = "<yes|NO>"
)

var (
	trueLiteralSet  = map[string]struct{}{"true": {}, "yes": {}, "on": {}, "1": {}, "t": {}, "y": {}}
	falseLiteralSet = map[string]struct{}{"false": {}, "no": {}, "off": {}, "0": {}, "f": {}, "n": {}}
)

// AddToggleFlag registers a boolean flag accepting yes/no style values. A bare
// `--name` sets it; `--name=no` clears it.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	flagSet.Var(newToggleFlagValue(defaultValue, target), name, usage)
	flag := flagSet.Lookup(name)
	flag.NoOptDefVal = toggleTrueCanonicalValue
	flag.Usage = formatToggleUsage(usage, defaultValue)
}

func formatToggleUsage(description string, defaultValue bool) string {
	placeholder := toggleArgumentFalsePlaceholderConstant
	if defaultValue {
		placeholder = toggleArgumentTruePlaceholderConstant
	}
	return strings.TrimSpace(fmt.Sprintf(toggleUsageTemplate, placeholder, strings.TrimSpace(description)))
}

type toggleFlagValue struct {
	currentValue bool
	target       *bool
}

func newToggleFlagValue(defaultValue bool, target *bool) *toggleFlagValue {
	if target != nil {
		*target = defaultValue
	}
	return &toggleFlagValue{currentValue: defaultValue, target: target}
}

func (value *toggleFlagValue) Set(rawValue string) error {
	parsedValue, parseError := parseToggleValue(rawValue)
	if parseError != nil {
		return parseError
	}
	value.currentValue = parsedValue
	if value.target != nil {
		*value.target = parsedValue
	}
	return nil
}

func (value *toggleFlagValue) String() string {
	if value != nil && value.currentValue {
		return toggleTrueCanonicalValue
	}
	return toggleFalseCanonicalValue
}

func (value *toggleFlagValue) Type() string {
	return toggleTypeNameConstant
}

func parseToggleValue(rawValue string) (bool, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalizedValue) == 0 {
		return true, nil
	}
	if _, isTrue := trueLiteralSet[normalizedValue]; isTrue {
		return true, nil
	}
	if _, isFalse := falseLiteralSet[normalizedValue]; isFalse {
		return false, nil
	}
	return false, fmt.Errorf(toggleParseErrorTemplate, rawValue)
}
