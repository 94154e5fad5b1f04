package tool

import (
	"fmt"
	"strings"
	"time"

	"secmcp/internal/breaker"
	"secmcp/internal/errs"
	"secmcp/internal/sanitize"
)

var gobusterWordlistPrefixes = []string{"/usr/share/wordlists/", "/opt/wordlists/"}

// ContentBruteForcer builds the gobuster descriptor: a directory/DNS/vhost
// brute-forcer, per spec.md §4.6's "Content brute-forcer" bullet.
func ContentBruteForcer() Descriptor {
	allowedFlags := map[string]struct{}{
		"-u": {}, "-d": {}, "-w": {}, "-t": {}, "-x": {}, "-q": {}, "-k": {},
		"--wildcard": {}, "-z": {}, "-o": {},
	}
	flagsRequireValue := map[string]sanitize.ValueValidator{
		"-u": nil,
		"-d": nil,
		"-w": wordlistPathValidator,
		"-t": sanitize.NumericOnly,
		"-x": nil,
	}

	return Descriptor{
		Name:        "gobuster",
		CommandName: "gobuster",
		Policy: sanitize.Policy{
			MaxArgsLen:         sanitize.DefaultMaxArgsLen,
			AllowedFlags:       allowedFlags,
			FlagsRequireValue:  flagsRequireValue,
			AllowedPositionals: map[string]struct{}{"dir": {}, "dns": {}, "vhost": {}},
		},
		DefaultTimeoutSec: 180,
		Concurrency:       3,
		BreakerParams:     breaker.Params{FailureThreshold: 5, RecoveryTimeout: 30 * time.Second, HalfOpenThreshold: 1},
		Validate:          validateContentBruteForcer,
		Optimize:          optimizeContentBruteForcer,
		MergeTarget:       mergeGobusterTarget,
	}
}

// mergeGobusterTarget binds target to -d for dns mode, -u otherwise.
func mergeGobusterTarget(tokens []string, target string) []string {
	flag := "-u"
	for _, t := range tokens {
		if t == "dns" {
			flag = "-d"
		}
	}
	out := append([]string{}, tokens...)
	return append(out, flag, target)
}

func wordlistPathValidator(value string) error {
	for _, prefix := range gobusterWordlistPrefixes {
		if strings.HasPrefix(value, prefix) {
			return nil
		}
	}
	return fmt.Errorf("wordlist path %q is not under an allowed prefix", value)
}

// validateContentBruteForcer requires a positional mode, and rejects an
// HTTP(S) target for DNS mode and a non-HTTP(S) target for URL-based modes
// (spec.md §4.6).
func validateContentBruteForcer(input Input, tokens []string) error {
	var mode string
	for _, t := range tokens {
		switch t {
		case "dir", "dns", "vhost":
			mode = t
		}
	}
	if mode == "" {
		return &errs.ValidationError{Type: errs.ErrValidation, Reason: "gobuster requires a mode: dir, dns, or vhost"}
	}

	isHTTP := strings.HasPrefix(input.Target, "http://") || strings.HasPrefix(input.Target, "https://")
	if mode == "dns" && isHTTP {
		return &errs.ValidationError{Type: errs.ErrValidation, Reason: "dns mode does not accept an HTTP(S) target"}
	}
	if (mode == "dir" || mode == "vhost") && !isHTTP {
		return &errs.ValidationError{Type: errs.ErrValidation, Reason: mode + " mode requires an http:// or https:// target"}
	}
	return nil
}

// optimizeContentBruteForcer injects a default thread count per mode when
// the caller did not specify one.
func optimizeContentBruteForcer(tokens []string) []string {
	return sanitize.ApplyDefaults(tokens, []sanitize.DefaultArg{
		{Present: sanitize.HasFlag("-t"), Tokens: []string{"-t", "10"}},
		{Present: sanitize.HasFlag("-q"), Tokens: []string{"-q"}},
	})
}
