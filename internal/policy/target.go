// Package policy implements the target authorization contract (C2): deciding
// whether a target string is a private/loopback IPv4 address, a private/
// loopback CIDR within the configured network-size cap, or a hostname under
// an allowed internal suffix.
//
// Grounded on the teacher's internal/sandbox validation style (reject first,
// explain why, never best-effort-accept).
package policy

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	"secmcp/internal/errs"
)

// DefaultMaxCIDRSize is the default network-size cap (number of addresses) a
// CIDR target may cover, per spec.md §4.1. Individual tools may tighten this.
const DefaultMaxCIDRSize = 1024

var hostLabelRe = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?$`)

// AllowedSuffix is the only hostname suffix authorized by the core policy.
const AllowedSuffix = ".lab.internal"

// Policy evaluates target authorization for one tool invocation. It is
// immutable after construction and safe for concurrent use.
type Policy struct {
	// MaxCIDRSize bounds the number of addresses a CIDR target may cover.
	MaxCIDRSize int
}

// New builds a Policy with the given CIDR cap; a cap <= 0 uses
// DefaultMaxCIDRSize.
func New(maxCIDRSize int) Policy {
	if maxCIDRSize <= 0 {
		maxCIDRSize = DefaultMaxCIDRSize
	}
	return Policy{MaxCIDRSize: maxCIDRSize}
}

// IsAuthorized reports whether target is permitted: a private/loopback IPv4
// address, a private/loopback CIDR within MaxCIDRSize, or a *.lab.internal
// hostname. It never spawns anything; it is a pure decision.
func (p Policy) IsAuthorized(target string) bool {
	return p.Check(target) == nil
}

// Check is IsAuthorized's verbose twin: nil on success, a *errs.ValidationError
// with a specific reason otherwise. Tie-break order per spec.md §4.1: CIDR
// before bare address; hostname only once both IP parses fail.
func (p Policy) Check(target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return p.reject("target is empty")
	}

	if strings.Contains(target, "/") {
		return p.checkCIDR(target)
	}
	if ip := net.ParseIP(target); ip != nil {
		return p.checkAddress(ip)
	}
	return p.checkHostname(target)
}

func (p Policy) checkCIDR(target string) error {
	ip, ipnet, err := net.ParseCIDR(target)
	if err != nil {
		return p.reject(fmt.Sprintf("%q is not a valid CIDR: %v", target, err))
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return p.reject("only IPv4 CIDRs are authorized")
	}
	if !isPrivateOrLoopback(ip4) {
		return p.reject(fmt.Sprintf("%q is not within RFC1918/loopback space", target))
	}

	ones, bits := ipnet.Mask.Size()
	if bits != 32 {
		return p.reject("only IPv4 CIDRs are authorized")
	}
	size := 1 << uint(32-ones)
	if size > p.MaxCIDRSize {
		return p.reject(fmt.Sprintf(
			"network %q covers %d addresses, exceeding the cap of %d; use a smaller CIDR",
			target, size, p.MaxCIDRSize,
		))
	}
	return nil
}

func (p Policy) checkAddress(ip net.IP) error {
	ip4 := ip.To4()
	if ip4 == nil {
		return p.reject("only IPv4 addresses are authorized")
	}
	if !isPrivateOrLoopback(ip4) {
		return p.reject(fmt.Sprintf("%q is not RFC1918/loopback; use a private or loopback address", ip4.String()))
	}
	return nil
}

func (p Policy) checkHostname(target string) error {
	if !strings.HasSuffix(target, AllowedSuffix) {
		return p.reject(fmt.Sprintf("%q must be RFC1918/loopback (or a CIDR) or end in %s", target, AllowedSuffix))
	}
	base := strings.TrimSuffix(target, AllowedSuffix)
	base = strings.TrimSuffix(base, ".")
	if base == "" {
		return p.reject("hostname has no label before " + AllowedSuffix)
	}
	for _, label := range strings.Split(base, ".") {
		if !hostLabelRe.MatchString(label) {
			return p.reject(fmt.Sprintf("hostname label %q is not a valid DNS label", label))
		}
	}
	return nil
}

func (p Policy) reject(reason string) error {
	return &errs.ValidationError{Type: errs.ErrValidation, Reason: reason}
}

// isPrivateOrLoopback reports whether a 4-byte IPv4 address is within
// 10/8, 172.16/12, 192.168/16, or 127/8.
func isPrivateOrLoopback(ip4 net.IP) bool {
	switch {
	case ip4[0] == 10:
		return true
	case ip4[0] == 127:
		return true
	case ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31:
		return true
	case ip4[0] == 192 && ip4[1] == 168:
		return true
	default:
		return false
	}
}
