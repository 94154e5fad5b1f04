package tool

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"secmcp/internal/breaker"
	"secmcp/internal/errs"
	"secmcp/internal/sanitize"
)

var hydraPayloadPattern = regexp.MustCompile(`^\^(USER|PASS)\^$`)

var hydraAllowedServices = map[string]struct{}{
	"ssh": {}, "ftp": {}, "http-get": {}, "http-post-form": {}, "https-post-form": {},
	"smb": {}, "rdp": {}, "mysql": {}, "postgres": {},
}

var hydraListPrefixes = []string{"/usr/share/wordlists/", "/opt/wordlists/"}

// CredentialTester builds the hydra descriptor: an online credential
// brute-forcer restricted to an allow-listed service set, per spec.md
// §4.6's "Credential tester" bullet.
func CredentialTester() Descriptor {
	allowedFlags := map[string]struct{}{
		"-l": {}, "-L": {}, "-p": {}, "-P": {}, "-t": {}, "-s": {}, "-f": {}, "-V": {},
	}
	flagsRequireValue := map[string]sanitize.ValueValidator{
		"-l": nil,
		"-L": listPathValidator,
		"-p": nil,
		"-P": listPathValidator,
		"-t": sanitize.NumericOnly,
		"-s": sanitize.PortSpec(1),
	}

	return Descriptor{
		Name:        "hydra",
		CommandName: "hydra",
		Policy: sanitize.Policy{
			MaxArgsLen:         sanitize.DefaultMaxArgsLen,
			AllowedFlags:       allowedFlags,
			FlagsRequireValue:  flagsRequireValue,
			PayloadPattern:     hydraPayloadPattern,
			AllowedPositionals: serviceNamesAsPositionals(),
		},
		DefaultTimeoutSec: 300,
		Concurrency:       1,
		BreakerParams:     breaker.Params{FailureThreshold: 3, RecoveryTimeout: time.Minute, HalfOpenThreshold: 1},
		Validate:          validateCredentialTester,
		Optimize:          optimizeCredentialTester,
		MergeTarget:       mergeHydraTarget,
	}
}

func serviceNamesAsPositionals() map[string]struct{} {
	out := make(map[string]struct{}, len(hydraAllowedServices))
	for s := range hydraAllowedServices {
		out[s] = struct{}{}
	}
	return out
}

func listPathValidator(value string) error {
	for _, prefix := range hydraListPrefixes {
		if strings.HasPrefix(value, prefix) {
			return nil
		}
	}
	return fmt.Errorf("credential list path %q is not under an allowed prefix", value)
}

// validateCredentialTester requires a recognized service name among the
// sanitized tokens.
func validateCredentialTester(input Input, tokens []string) error {
	for _, t := range tokens {
		if _, ok := hydraAllowedServices[t]; ok {
			return nil
		}
	}
	return &errs.ValidationError{Type: errs.ErrValidation, Reason: "hydra requires a recognized service name among its positionals"}
}

// optimizeCredentialTester injects a conservative thread cap when absent.
func optimizeCredentialTester(tokens []string) []string {
	return sanitize.ApplyDefaults(tokens, []sanitize.DefaultArg{
		{Present: sanitize.HasFlag("-t"), Tokens: []string{"-t", "4"}},
	})
}

// mergeHydraTarget appends target as hydra's trailing host argument; the
// service positional (already sanitized into tokens) stays ahead of it.
func mergeHydraTarget(tokens []string, target string) []string {
	return append(append([]string{}, tokens...), target)
}
