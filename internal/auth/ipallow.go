package auth

import (
	"net"
	"strings"
)

// IPAllowed reports whether clientIP passes the whitelist. An empty
// whitelist allows everything; a non-empty one is strict.
func IPAllowed(clientIP string, whitelist []string) bool {
	if len(whitelist) == 0 {
		return true
	}
	ip := net.ParseIP(clientIP)
	if ip == nil {
		return false
	}
	for _, entry := range whitelist {
		if strings.Contains(entry, "/") {
			_, netw, err := net.ParseCIDR(entry)
			if err == nil && netw.Contains(ip) {
				return true
			}
			continue
		}
		if parsed := net.ParseIP(entry); parsed != nil && parsed.Equal(ip) {
			return true
		}
	}
	return false
}

// ValidateIPWhitelist checks every entry is a parseable IP or CIDR.
func ValidateIPWhitelist(whitelist []string) bool {
	for _, entry := range whitelist {
		if strings.TrimSpace(entry) == "" {
			return false
		}
		if strings.Contains(entry, "/") {
			if _, _, err := net.ParseCIDR(entry); err != nil {
				return false
			}
			continue
		}
		if net.ParseIP(entry) == nil {
			return false
		}
	}
	return true
}
