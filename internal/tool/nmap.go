package tool

import (
	"regexp"
	"time"

	"secmcp/internal/breaker"
	"secmcp/internal/sanitize"
)

var nmapPayloadPattern = regexp.MustCompile(`^\{TARGET\}$`)

var nmapSafeScripts = map[string]struct{}{
	"default": {}, "safe": {}, "discovery": {}, "version": {}, "banner": {},
}
var nmapIntrusiveScripts = map[string]struct{}{
	"vuln": {}, "exploit": {}, "intrusive": {}, "brute": {},
}

// NetworkScanner builds the nmap descriptor: a network discovery/port
// scanner, the tool-specific policy described in spec.md §4.6's "Network
// scanner" bullet.
func NetworkScanner(allowIntrusive bool) Descriptor {
	allowedFlags := map[string]struct{}{
		"-sV": {}, "-sC": {}, "-sS": {}, "-sT": {}, "-sU": {}, "-Pn": {}, "-O": {},
		"-A": {}, "-v": {}, "-vv": {},
		"-T0": {}, "-T1": {}, "-T2": {}, "-T3": {}, "-T4": {}, "-T5": {},
		"--top-ports": {}, "-p": {}, "--script": {}, "--min-rate": {}, "--max-rate": {},
		"--max-retries": {}, "--host-timeout": {}, "--open": {}, "--max-parallelism": {},
	}
	flagsRequireValue := map[string]sanitize.ValueValidator{
		"-p":                sanitize.PortSpec(32),
		"--top-ports":       sanitize.NumericOnly,
		"--min-rate":        sanitize.NumericOnly,
		"--max-rate":        sanitize.NumericOnly,
		"--max-retries":     sanitize.NumericOnly,
		"--host-timeout":    sanitize.Duration,
		"--max-parallelism": sanitize.NumericOnly,
		"--script":          sanitize.ScriptSpec(nmapSafeScripts, nmapIntrusiveScripts, allowIntrusive),
	}

	return Descriptor{
		Name:        "nmap",
		CommandName: "nmap",
		Policy: sanitize.Policy{
			MaxArgsLen:         sanitize.DefaultMaxArgsLen,
			AllowedFlags:       allowedFlags,
			FlagsRequireValue:  flagsRequireValue,
			PayloadPattern:     nmapPayloadPattern,
			AllowedPositionals: map[string]struct{}{},
		},
		DefaultTimeoutSec: 300,
		Concurrency:       2,
		BreakerParams:     breaker.Params{FailureThreshold: 5, RecoveryTimeout: 30 * time.Second, HalfOpenThreshold: 1},
		TargetMaxCIDRSize: 1024,
		Optimize:          optimizeNetworkScanner,
	}
}

// optimizeNetworkScanner injects a conservative timing template, a top-N
// port default, a retry cap, and a host-discovery skip when the caller
// didn't already specify one, per spec.md §4.6's network-scanner bullet.
// Prepended so the caller's own flags still win on conflict.
func optimizeNetworkScanner(tokens []string) []string {
	return sanitize.ApplyDefaults(tokens, []sanitize.DefaultArg{
		{Present: sanitize.HasFlagPrefix("-T"), Tokens: []string{"-T4"}},
		{Present: sanitize.HasFlag("--max-parallelism"), Tokens: []string{"--max-parallelism", "10"}},
		{Present: sanitize.HasFlag("--top-ports"), Tokens: []string{"--top-ports", "1000"}},
		{Present: sanitize.HasFlag("-Pn"), Tokens: []string{"-Pn"}},
		{Present: sanitize.HasFlag("--max-retries"), Tokens: []string{"--max-retries", "2"}},
	})
}
