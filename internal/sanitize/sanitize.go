// Package sanitize implements the argument sanitizer (C3): turning a raw
// extra_args string into a policed, ordered token sequence no shell ever
// touches.
//
// Grounded on the teacher's internal/sandbox command-injection tests (never
// hand the string to sh -c) and on itsddvn-goclaw's use of
// github.com/mattn/go-shellwords for shell-style tokenization without
// expansion or substitution.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mattn/go-shellwords"

	"secmcp/internal/errs"
)

// DefaultMaxArgsLen is used when a Policy doesn't set MaxArgsLen.
const DefaultMaxArgsLen = 2048

// deniedChars are control/meta characters that are never permitted anywhere
// in extra_args, regardless of tokenization (spec.md §3).
const deniedChars = ";&|`$<>\r\n"

var tokenGrammar = regexp.MustCompile(`^[A-Za-z0-9.:/=+,\-@%_]+$`)
var pureInteger = regexp.MustCompile(`^[0-9]+$`)

// ValueValidator checks the value bound to a flags-require-value flag.
type ValueValidator func(value string) error

// Policy is the subset of a tool descriptor the sanitizer needs. It is built
// by internal/tool from a ToolDescriptor and is immutable for the call.
type Policy struct {
	// MaxArgsLen bounds extra_args length; <= 0 uses DefaultMaxArgsLen.
	MaxArgsLen int

	// AllowedFlags is the flag-base allow-list. A nil map means "no
	// allow-list is enforced" (used only by tests); every real tool
	// descriptor sets this.
	AllowedFlags map[string]struct{}

	// FlagsRequireValue maps a flag base to the validator for its value.
	// A flag present here consumes the next token (or its `=value` suffix)
	// as its value instead of being walked as an independent token.
	FlagsRequireValue map[string]ValueValidator

	// ExtraAllowedTokens extends AllowedFlags with additional flag bases
	// (kept distinct from AllowedFlags to mirror the spec's "allowed_flags
	// ∪ extra_allowed_tokens" wording).
	ExtraAllowedTokens map[string]struct{}

	// AllowedPositionals lists non-flag tokens explicitly permitted, e.g. a
	// gobuster mode (dir/dns/vhost).
	AllowedPositionals map[string]struct{}

	// PayloadPattern matches approved placeholder tokens (e.g. ^USER^,
	// {TARGET}) that must pass through untouched even though they fail the
	// normal token grammar.
	PayloadPattern *regexp.Regexp
}

func (p Policy) maxArgsLen() int {
	if p.MaxArgsLen <= 0 {
		return DefaultMaxArgsLen
	}
	return p.MaxArgsLen
}

func (p Policy) flagAllowed(base string) bool {
	if p.AllowedFlags == nil && p.ExtraAllowedTokens == nil {
		return true
	}
	if _, ok := p.AllowedFlags[base]; ok {
		return true
	}
	if _, ok := p.ExtraAllowedTokens[base]; ok {
		return true
	}
	return false
}

// Sanitize implements the C3 contract: tokenize extraArgs under pol, return
// the ordered, policed token sequence, or a *errs.ValidationError explaining
// the first violation found.
func Sanitize(extraArgs string, pol Policy) ([]string, error) {
	if len(extraArgs) > pol.maxArgsLen() {
		return nil, reject(fmt.Sprintf("extra_args exceeds max length of %d", pol.maxArgsLen()))
	}
	if i := strings.IndexAny(extraArgs, deniedChars); i >= 0 {
		return nil, reject(fmt.Sprintf("extra_args contains a denied character %q", extraArgs[i]))
	}

	tokens, err := tokenize(extraArgs)
	if err != nil {
		return nil, reject(fmt.Sprintf("failed to tokenize extra_args: %v", err))
	}

	out := make([]string, 0, len(tokens))

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		if !tokenShapeOK(tok, pol) {
			return nil, reject(fmt.Sprintf("token %q does not match the allowed grammar", tok))
		}

		if isFlag(tok) {
			base, inlineValue, hasInline := splitFlag(tok)

			if validator, needsValue := pol.FlagsRequireValue[base]; needsValue {
				if !pol.flagAllowed(base) {
					return nil, reject(fmt.Sprintf("flag %q is not permitted for this tool", base))
				}

				var value string
				if hasInline {
					value = inlineValue
				} else {
					if i+1 >= len(tokens) {
						return nil, reject(fmt.Sprintf("flag %q requires a value but none was given", base))
					}
					i++
					value = tokens[i]
				}
				if validator != nil {
					if err := validator(value); err != nil {
						return nil, reject(fmt.Sprintf("invalid value for flag %q: %v", base, err))
					}
				}
				// Always emit the two-token shape, regardless of whether the
				// caller wrote --flag=value or --flag value, so the two
				// forms produce identical argv (spec.md §3).
				out = append(out, base, value)
				continue
			}

			if !pol.flagAllowed(base) {
				return nil, reject(fmt.Sprintf("flag %q is not permitted for this tool", base))
			}
			out = append(out, tok)
			continue
		}

		// Non-flag token: payload placeholder, allowed positional, or
		// pure integer are the only admissible shapes.
		if pol.PayloadPattern != nil && pol.PayloadPattern.MatchString(tok) {
			out = append(out, tok)
			continue
		}
		if _, ok := pol.AllowedPositionals[tok]; ok {
			out = append(out, tok)
			continue
		}
		if pureInteger.MatchString(tok) {
			out = append(out, tok)
			continue
		}
		return nil, reject(fmt.Sprintf("unexpected positional token %q", tok))
	}

	return out, nil
}

// tokenShapeOK reports whether tok matches the base grammar, is a flag, is a
// pure decimal integer, or matches the descriptor's payload placeholder
// pattern.
func tokenShapeOK(tok string, pol Policy) bool {
	if tok == "" {
		return false
	}
	if tokenGrammar.MatchString(tok) {
		return true
	}
	if isFlag(tok) {
		return true // flags carry their own '=' already covered by grammar in the common case; dash is not in the grammar charset
	}
	if pureInteger.MatchString(tok) {
		return true
	}
	if pol.PayloadPattern != nil && pol.PayloadPattern.MatchString(tok) {
		return true
	}
	return false
}

func isFlag(tok string) bool {
	return strings.HasPrefix(tok, "-") && tok != "-"
}

// splitFlag splits "--flag=value" into ("--flag", "value", true); a flag with
// no '=' returns ("--flag", "", false).
func splitFlag(tok string) (base, value string, hasInline bool) {
	if i := strings.IndexByte(tok, '='); i >= 0 {
		return tok[:i], tok[i+1:], true
	}
	return tok, "", false
}

// tokenize performs shell-style splitting with quoting and no expansion, no
// substitution, no glob, per spec.md §4.2 step 2.
func tokenize(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parser := shellwords.NewParser()
	parser.ParseEnv = false
	parser.ParseBacktick = false
	return parser.Parse(s)
}

func reject(reason string) error {
	return &errs.ValidationError{Type: errs.ErrValidation, Reason: reason}
}
