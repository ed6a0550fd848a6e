package model

import "time"

// SecretKind identifies which connection-secret shape a Credential carries.
type SecretKind string

const (
	SecretDefault  SecretKind = "Default"
	SecretPassword SecretKind = "Password"
	SecretKeyFile  SecretKind = "KeyFile"
	SecretKeyData  SecretKind = "KeyData"
)

// SensitiveString wraps secret material and zeroes its backing array on
// Release. Go has no destructors, so callers MUST call Release when done;
// there is no way to guarantee it runs, which is why callers that only
// need to read the value should do so and release immediately rather than
// holding one open across a long-lived struct.
type SensitiveString struct {
	b []byte
}

// NewSensitiveString copies value into a releasable buffer.
func NewSensitiveString(value string) SensitiveString {
	b := make([]byte, len(value))
	copy(b, value)
	return SensitiveString{b: b}
}

// String returns the current value. It is unsafe to retain the result
// past a call to Release.
func (s SensitiveString) String() string {
	return string(s.b)
}

// Release overwrites the backing memory with zeroes.
func (s *SensitiveString) Release() {
	for i := range s.b {
		s.b[i] = 0
	}
}

// Secret is a tagged union over the supported connection-secret shapes.
type Secret struct {
	Kind       SecretKind
	Username   string
	Password   *SensitiveString
	KeyPath    string
	KeyData    *SensitiveString
	Passphrase *SensitiveString
}

// Release zeroes every sensitive field held by the secret.
func (s *Secret) Release() {
	if s.Password != nil {
		s.Password.Release()
	}
	if s.KeyData != nil {
		s.KeyData.Release()
	}
	if s.Passphrase != nil {
		s.Passphrase.Release()
	}
}

// Credential is a full stored credential record, including secret material.
type Credential struct {
	ID          string
	Name        string
	Description *string
	CreatedAt   time.Time
	LastUsedAt  *time.Time
	Secret      Secret
}

// Release zeroes the credential's secret material.
func (c *Credential) Release() {
	c.Secret.Release()
}

// CredentialSummary is a Credential without secret material, safe to list.
type CredentialSummary struct {
	ID          string
	Name        string
	Description *string
	Type        SecretKind
	Username    string
	CreatedAt   time.Time
	LastUsedAt  *time.Time
}

// Summarize strips secrets from a Credential.
func Summarize(c *Credential) CredentialSummary {
	return CredentialSummary{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Type:        c.Secret.Kind,
		Username:    c.Secret.Username,
		CreatedAt:   c.CreatedAt,
		LastUsedAt:  c.LastUsedAt,
	}
}
