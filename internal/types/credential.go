package types

import "time"

// CredentialSource records whether the credential came from the persisted
// cache or from a live fetch.
type CredentialSource string

const (
	CredentialSourceCached  CredentialSource = "cached"
	CredentialSourceFetched CredentialSource = "fetched"
)

// MinTokenLength is the minimum plausible access-token length. Persisted
// records with shorter tokens are treated as corrupt and discarded.
const MinTokenLength = 16

// Credential is the single access credential shared by all callers and
// processes on a host. Owned exclusively by the token lifecycle manager.
type Credential struct {
	Token     string           `json:"token"`
	IssuedAt  time.Time        `json:"issued_at"`
	ExpiresAt time.Time        `json:"expires_at"`
	Source    CredentialSource `json:"source"`
	// PID is the process that last persisted the record, for diagnostics.
	PID int `json:"pid"`
}

// ValidAt reports whether the credential is usable at the instant now,
// applying the safety buffer before nominal expiry.
func (c *Credential) ValidAt(now time.Time, buffer time.Duration) bool {
	if c == nil || c.Token == "" {
		return false
	}

	return now.Before(c.ExpiresAt.Add(-buffer))
}

// StructurallyValid reports whether the persisted record has all required
// fields and a plausible token. Records failing this check are deleted and
// treated as absent rather than surfaced as parse errors.
func (c *Credential) StructurallyValid() bool {
	if c == nil {
		return false
	}

	if len(c.Token) < MinTokenLength {
		return false
	}

	if c.IssuedAt.IsZero() || c.ExpiresAt.IsZero() {
		return false
	}

	return c.ExpiresAt.After(c.IssuedAt)
}

// TokenState describes the credential from a health-check perspective.
type TokenState string

const (
	TokenStateValid        TokenState = "VALID"
	TokenStateExpiringSoon TokenState = "EXPIRING_SOON"
	TokenStateExpired      TokenState = "EXPIRED"
	TokenStateNoToken      TokenState = "NO_TOKEN"
)

// TokenStatus is the read-only health view of the managed credential.
type TokenStatus struct {
	State TokenState `json:"state"`
	// Remaining is the time left until the credential stops being usable
	// (zero when expired or absent).
	Remaining time.Duration `json:"remaining"`
}
