package network

import (
	"fmt"
	"net"
	"strings"

	"github.com/samber/lo"
)

// SplitSubnets splits a comma separated subnet list, dropping blanks.
func SplitSubnets(subnets string) []string {
	parts := lo.Map(strings.Split(subnets, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Compact(parts)
}

// ValidateSubnets checks that every entry of a comma separated list is a CIDR block.
func ValidateSubnets(subnets string) error {
	for _, s := range SplitSubnets(subnets) {
		if _, _, err := net.ParseCIDR(s); err != nil {
			return fmt.Errorf("invalid subnet %q", s)
		}
	}
	return nil
}

// IPInSubnets reports whether ip falls into any of the listed subnets.
// An empty list allows every address.
func IPInSubnets(ip string, subnets string) bool {
	list := SplitSubnets(subnets)
	if len(list) == 0 {
		return true
	}
	addr := net.ParseIP(ip)
	if addr == nil {
		return false
	}
	return lo.ContainsBy(list, func(s string) bool {
		_, n, err := net.ParseCIDR(s)
		return err == nil && n.Contains(addr)
	})
}
