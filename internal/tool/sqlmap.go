package tool

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"secmcp/internal/breaker"
	"secmcp/internal/errs"
	"secmcp/internal/sanitize"
)

var sqlmapPayloadPattern = regexp.MustCompile(`^\^(USER|PASS)\^$|^\{TARGET\}$`)

// SQLiTester builds the sqlmap descriptor: a SQL-injection tester forced
// into non-interactive batch mode with clamped risk/level, per spec.md
// §4.6's "SQLi tester" bullet.
func SQLiTester() Descriptor {
	allowedFlags := map[string]struct{}{
		"--batch": {}, "--risk": {}, "--level": {}, "--dbs": {}, "--tables": {},
		"--current-user": {}, "--current-db": {}, "--technique": {}, "--random-agent": {},
	}
	flagsRequireValue := map[string]sanitize.ValueValidator{
		"--risk":     riskValidator,
		"--level":    levelValidator,
		"--technique": nil,
	}

	return Descriptor{
		Name:        "sqlmap",
		CommandName: "sqlmap",
		Policy: sanitize.Policy{
			MaxArgsLen:         sanitize.DefaultMaxArgsLen,
			AllowedFlags:       allowedFlags,
			FlagsRequireValue:  flagsRequireValue,
			PayloadPattern:     sqlmapPayloadPattern,
			AllowedPositionals: map[string]struct{}{},
		},
		DefaultTimeoutSec: 300,
		Concurrency:       1,
		BreakerParams:     breaker.Params{FailureThreshold: 3, RecoveryTimeout: time.Minute, HalfOpenThreshold: 1},
		Validate:          validateSQLiTester,
		Optimize:          optimizeSQLiTester,
		MergeTarget:       mergeSQLiTarget,
	}
}

func riskValidator(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > 2 {
		return &errs.ValidationError{Type: errs.ErrValidation, Reason: "--risk must be 1 or 2"}
	}
	return nil
}

func levelValidator(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > 3 {
		return &errs.ValidationError{Type: errs.ErrValidation, Reason: "--level must be 1, 2, or 3"}
	}
	return nil
}

// validateSQLiTester requires an http(s) target; C2 already confirmed the
// host is private or .lab.internal, this adds the scheme check spec.md
// §4.6 calls out separately.
func validateSQLiTester(input Input, tokens []string) error {
	if !strings.HasPrefix(input.Target, "http://") && !strings.HasPrefix(input.Target, "https://") {
		return &errs.ValidationError{Type: errs.ErrValidation, Reason: "sqlmap requires an http:// or https:// target URL"}
	}
	return nil
}

// optimizeSQLiTester force-injects --batch (sqlmap must never prompt
// interactively) and clamps risk/level to safe defaults when absent.
func optimizeSQLiTester(tokens []string) []string {
	return sanitize.ApplyDefaults(tokens, []sanitize.DefaultArg{
		{Present: sanitize.HasFlag("--batch"), Tokens: []string{"--batch"}},
		{Present: sanitize.HasFlag("--risk"), Tokens: []string{"--risk", "1"}},
		{Present: sanitize.HasFlag("--level"), Tokens: []string{"--level", "1"}},
	})
}

// mergeSQLiTarget binds target to sqlmap's -u flag.
func mergeSQLiTarget(tokens []string, target string) []string {
	return append(append([]string{}, tokens...), "-u", target)
}
