package normalise

import (
	"fmt"
	"net/url"
	"strings"
)

// SessionScope normalises a cookie domain. The result is lower-cased, stripped of scheme,
// port and path, and keeps a single leading dot when the input had one. localhost and IPv4
// literals are returned without a dot.
func SessionScope(input string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(input))

	host, err := scopeHost(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidScope, input, err)
	}

	if host == "localhost" || IsIPAddress(host) {
		return host, nil
	}
	if strings.HasPrefix(trimmed, ".") {
		return "." + host, nil
	}
	return host, nil
}

func scopeHost(scope string) (string, error) {
	scope = strings.TrimPrefix(scope, ".")
	if !hasHTTPScheme(scope) {
		scope = "http://" + scope
	}

	u, err := url.Parse(scope)
	if err != nil {
		return "", err
	}
	host := strings.TrimPrefix(u.Hostname(), ".")
	if host == "" {
		return "", fmt.Errorf("empty hostname")
	}
	return host, nil
}
