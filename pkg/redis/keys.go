package redis

import "strings"

const keyspace = "fq"

// Key families. Every key the services write lives under fq:<family>:...
const (
	familyIdempotency = "idempotency"
	familyCounter     = "counter"
	familySession     = "session"
	familyWizard      = "wizard"
	familyLock        = "lock"
	familyCache       = "cache"
)

func (c *Client) IdempotencyKey(scope, id string) string {
	return key(familyIdempotency, scope, id)
}

// CounterKey names a monotonic counter such as the quotation sequence.
func (c *Client) CounterKey(name string) string {
	return key(familyCounter, name)
}

func (c *Client) WizardSessionKey(sessionID string) string {
	return key(familyWizard, sessionID)
}

func (c *Client) LockKey(name string) string {
	return key(familyLock, name)
}

// CacheKey names a cached sheet read model.
func (c *Client) CacheKey(name string) string {
	return key(familyCache, name)
}

func (c *Client) AccessSessionKey(accessID string) string {
	return key(familySession, "access", accessID)
}

// key joins non-blank parts under the keyspace.
func key(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyspace)
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			b.WriteByte(':')
			b.WriteString(p)
		}
	}
	return b.String()
}
