package normalise

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

var ipv4Pattern = regexp.MustCompile(`^(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)

// IsIPAddress reports whether s is a dotted IPv4 literal.
func IsIPAddress(s string) bool {
	return ipv4Pattern.MatchString(s)
}

// Domain normalises input to "scheme://host[:port]".
//
// Inputs without a scheme must look like a domain (contain a dot) or start with
// "localhost"; anything else, including paths, fails with [ErrInvalidURL].
func Domain(input string) (string, error) {
	out, ok := domain(input, false)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a valid domain", ErrInvalidURL, input)
	}
	return out, nil
}

func domain(input string, inferScheme bool) (string, bool) {
	input = strings.ToLower(strings.TrimSpace(input))

	if hasHTTPScheme(input) {
		u, err := url.Parse(input)
		if err == nil && u.Hostname() != "" {
			host := hostWithPort(u)
			if inferScheme {
				if strings.HasPrefix(u.Hostname(), "localhost") || IsIPAddress(u.Hostname()) {
					return "http://" + host, true
				}
				return "https://" + host, true
			}
			return u.Scheme + "://" + host, true
		}
		return "", false
	}

	if strings.HasPrefix(input, "/") {
		return "", false
	}
	input = strings.TrimPrefix(input, ".")

	if strings.Contains(input, ".") || strings.HasPrefix(input, "localhost") {
		return domain("https://"+input, true)
	}
	return "", false
}

// ComparableHost reduces a domain (normalised or not) to "host[:port]" with the
// scheme's default port omitted.
func ComparableHost(input string) (string, error) {
	d, err := Domain(input)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(d)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return hostWithPort(u), nil
}

// Hostname returns the bare hostname of a domain, without scheme or port.
func Hostname(input string) (string, error) {
	d, err := Domain(input)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(d)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return u.Hostname(), nil
}

// Port returns the explicit, non-default port of a domain, or "".
func Port(input string) (string, error) {
	d, err := Domain(input)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(d)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return u.Port(), nil
}

func hostWithPort(u *url.URL) string {
	hostname := u.Hostname()
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		return net.JoinHostPort(hostname, port)
	}
	if strings.Contains(hostname, ":") {
		return "[" + hostname + "]"
	}
	return hostname
}

func hasHTTPScheme(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
