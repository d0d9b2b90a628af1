package domain

import "strings"

// ZeroAddress is the all-zero EVM address in lowercase hex.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// NormalizeAddress lowercases a hex address and trims surrounding whitespace.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// SameAddress compares two addresses case-insensitively.
// Empty addresses never match.
func SameAddress(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return NormalizeAddress(a) == NormalizeAddress(b)
}

// IsZeroAddress reports whether addr is empty or the zero address.
func IsZeroAddress(addr string) bool {
	return addr == "" || NormalizeAddress(addr) == ZeroAddress
}

// ShortAddress renders an address as 0x1234...abcd.
// Addresses shorter than 42 characters are returned unchanged.
func ShortAddress(addr string) string {
	if len(addr) < 42 {
		return addr
	}
	return addr[:6] + "..." + addr[38:]
}
