package sanitize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	durationGrammar = regexp.MustCompile(`^[0-9]+(ms|s|m)?$`)
	portRangeSpec   = regexp.MustCompile(`^[0-9]{1,5}(-[0-9]{1,5})?$`)
)

// NumericOnly validates a positive decimal integer value.
func NumericOnly(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%q is not a decimal integer", value)
	}
	if n <= 0 {
		return fmt.Errorf("%q must be a positive integer", value)
	}
	return nil
}

// Duration validates the duration grammar `^[0-9]+(ms|s|m)?$`.
func Duration(value string) error {
	if !durationGrammar.MatchString(value) {
		return fmt.Errorf("%q is not a valid duration (expected <digits>[ms|s|m])", value)
	}
	return nil
}

// PortSpec builds a validator for a comma-separated port/range list, each
// entry 1-65535, start <= end, at most maxRanges entries.
func PortSpec(maxRanges int) ValueValidator {
	return func(value string) error {
		parts := strings.Split(value, ",")
		if len(parts) > maxRanges {
			return fmt.Errorf("port spec has %d ranges, exceeding the cap of %d", len(parts), maxRanges)
		}
		for _, part := range parts {
			if !portRangeSpec.MatchString(part) {
				return fmt.Errorf("port range %q is malformed", part)
			}
			bounds := strings.SplitN(part, "-", 2)
			start, _ := strconv.Atoi(bounds[0])
			end := start
			if len(bounds) == 2 {
				end, _ = strconv.Atoi(bounds[1])
			}
			if start < 1 || start > 65535 || end < 1 || end > 65535 {
				return fmt.Errorf("port range %q is out of the 1-65535 range", part)
			}
			if start > end {
				return fmt.Errorf("port range %q has start > end", part)
			}
		}
		return nil
	}
}

// ScriptSpec builds a validator for a comma-separated script-name list,
// filtered against a safe-script set, admitting intrusive categories only
// when allowIntrusive is set. Matching is always exact-name or curated
// category — spec.md's Open Questions forbid wildcard/substring matches.
func ScriptSpec(safe map[string]struct{}, intrusive map[string]struct{}, allowIntrusive bool) ValueValidator {
	return func(value string) error {
		for _, name := range strings.Split(value, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				return fmt.Errorf("script spec contains an empty entry")
			}
			if strings.ContainsAny(name, "*?") {
				return fmt.Errorf("script name %q uses a wildcard, which is never permitted", name)
			}
			if _, ok := safe[name]; ok {
				continue
			}
			if _, ok := intrusive[name]; ok && allowIntrusive {
				continue
			}
			return fmt.Errorf("script %q is not in the safe set (or intrusive scripts are not enabled)", name)
		}
		return nil
	}
}
