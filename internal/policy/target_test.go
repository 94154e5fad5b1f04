package policy

import (
	"strings"
	"testing"
)

func TestIsAuthorized(t *testing.T) {
	p := New(DefaultMaxCIDRSize)

	cases := []struct {
		name   string
		target string
		want   bool
	}{
		{"private class A", "10.0.0.5", true},
		{"private class B", "172.16.0.1", true},
		{"private class B upper bound", "172.31.255.254", true},
		{"private class B out of range", "172.32.0.1", false},
		{"private class C", "192.168.1.1", true},
		{"loopback", "127.0.0.1", true},
		{"public", "8.8.8.8", false},
		{"private cidr small", "192.168.1.0/30", true},
		{"cidr at cap", "10.0.0.0/22", true},    // /22 = 1024 addresses
		{"cidr over cap", "10.0.0.0/21", false}, // /21 = 2048 addresses
		{"public cidr", "1.2.3.0/24", false},
		{"lab hostname", "scanner-1.lab.internal", true},
		{"bare suffix no label", ".lab.internal", false},
		{"wrong suffix", "scanner-1.corp.internal", false},
		{"hostname with bad char", "scan_ner.lab.internal", false},
		{"empty", "", false},
		{"ipv6", "::1", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.IsAuthorized(tc.target); got != tc.want {
				t.Errorf("IsAuthorized(%q) = %v, want %v", tc.target, got, tc.want)
			}
		})
	}
}

func TestCIDRBoundary(t *testing.T) {
	p := New(1024)
	if err := p.Check("10.0.0.0/22"); err != nil {
		t.Errorf("cap-sized CIDR should be accepted: %v", err)
	}
	if err := p.Check("10.0.0.0/21"); err == nil {
		t.Errorf("cap+1-sized CIDR should be rejected")
	}
}

func TestRejectionReasonMentionsRFC1918(t *testing.T) {
	p := New(DefaultMaxCIDRSize)
	err := p.Check("8.8.8.8")
	if err == nil {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(err.Error(), "RFC1918") {
		t.Errorf("rejection reason %q does not mention RFC1918", err.Error())
	}
}
