// Package fronttoken decodes the front token: the client-visible summary of a session
// (user id, access-token expiry and access-token payload) the API sends alongside it.
//
// Two encodings are accepted: base64 of a JSON object {"uid","ate","up"}, standard or
// URL-safe, padded or not, and a JWT whose claims carry the same fields (registered
// "sub"/"exp" are used as fallbacks). The token is never verified; it does not authorise
// anything.
package fronttoken

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned for tokens that match neither encoding.
var ErrMalformed = errors.New("malformed front token")

// Claims is the decoded front token.
type Claims struct {
	UserID string `json:"uid"`
	// AccessTokenExpiry is in Unix milliseconds; zero means unknown.
	AccessTokenExpiry int64          `json:"ate"`
	Payload           map[string]any `json:"up"`
}

// ExpiresAt returns the access-token expiry, or the zero time when unknown.
func (c *Claims) ExpiresAt() time.Time {
	if c.AccessTokenExpiry <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(c.AccessTokenExpiry)
}

// Expired reports whether the access token had expired at now. Unknown expiry is never
// expired.
func (c *Claims) Expired(now time.Time) bool {
	exp := c.ExpiresAt()
	return !exp.IsZero() && !now.Before(exp)
}

// Decode parses token.
func Decode(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMalformed
	}
	if strings.Count(token, ".") == 2 {
		return decodeJWT(token)
	}

	raw, err := decodeSegment(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var c Claims
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if c.Payload == nil {
		c.Payload = map[string]any{}
	}
	return &c, nil
}

func decodeSegment(token string) ([]byte, error) {
	if raw, err := base64.StdEncoding.DecodeString(token); err == nil {
		return raw, nil
	}
	unpadded := strings.TrimRight(token, "=")
	if raw, err := base64.RawStdEncoding.DecodeString(unpadded); err == nil {
		return raw, nil
	}
	return jwt.NewParser().DecodeSegment(unpadded)
}

func decodeJWT(token string) (*Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	c := &Claims{Payload: map[string]any{}}
	if uid, ok := mc["uid"].(string); ok {
		c.UserID = uid
	} else if sub, err := mc.GetSubject(); err == nil {
		c.UserID = sub
	}

	if ate, ok := mc["ate"].(float64); ok {
		c.AccessTokenExpiry = int64(ate)
	} else if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.AccessTokenExpiry = exp.UnixMilli()
	}

	if up, ok := mc["up"].(map[string]any); ok {
		c.Payload = up
	} else {
		for k, v := range mc {
			switch k {
			case "uid", "ate", "sub", "exp", "iat", "nbf", "iss", "aud", "jti":
				continue
			}
			c.Payload[k] = v
		}
	}
	return c, nil
}
