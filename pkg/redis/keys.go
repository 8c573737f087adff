package redis

import "strings"

const keyNamespace = "dlb"

func key(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

// IdempotencyKey scopes a stored response to the caller and route.
func (c *Client) IdempotencyKey(scope, id string) string {
	return key("idempotency", scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return key("rate_limit", scope)
}

// AccessSessionKey indexes a refresh session by the access token's jti.
func (c *Client) AccessSessionKey(accessID string) string {
	return key("session", "access", accessID)
}

// VerificationCodeKey is case-insensitive on the email.
func (c *Client) VerificationCodeKey(email string) string {
	return key("vcode", strings.ToLower(strings.TrimSpace(email)))
}

func (c *Client) LockKey(name string) string {
	return key("lock", name)
}
