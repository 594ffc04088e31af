package service

import "strings"

// TargetDomain returns the part of host that precedes the first occurrence of
// "." + ownDomain. Everything from that occurrence on is dropped, including
// any further copies of the suffix, so "a.example.com.example.com" yields "a".
func TargetDomain(host, ownDomain string) (string, error) {
	if ownDomain == "" {
		return "", &ResolutionError{Host: host, OwnDomain: ownDomain}
	}
	i := strings.Index(host, "."+ownDomain)
	if i <= 0 {
		return "", &ResolutionError{Host: host, OwnDomain: ownDomain}
	}
	return host[:i], nil
}
