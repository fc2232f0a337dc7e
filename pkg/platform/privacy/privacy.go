// Package privacy provides log-safe representations of client identifiers.
// Raw IPs and device fingerprints are stored for fraud analysis but never
// logged verbatim.
package privacy

import (
	"encoding/hex"
	"net"
	"strings"

	"golang.org/x/crypto/sha3"
)

// AnonymizeIP truncates an IP address for logging: the last octet of an IPv4
// address, or everything past the /48 of an IPv6 address, is zeroed.
func AnonymizeIP(ip string) string {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "invalid"
	}
	if v4 := parsed.To4(); v4 != nil {
		masked := v4.Mask(net.CIDRMask(24, 32))
		return masked.String() + "/24"
	}
	masked := parsed.Mask(net.CIDRMask(48, 128))
	return masked.String() + "/48"
}

// FingerprintDigest returns a short stable digest of a device fingerprint,
// suitable for log correlation without exposing the raw token.
func FingerprintDigest(fingerprint string) string {
	if fingerprint == "" {
		return ""
	}
	sum := sha3.Sum256([]byte(fingerprint))
	return hex.EncodeToString(sum[:8])
}
