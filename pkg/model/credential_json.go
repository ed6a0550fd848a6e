package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// credentialJSON is the on-disk shape of a Credential inside the
// encrypted file: a deterministic string-keyed JSON object.
type credentialJSON struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	Secret      secretJSON `json:"secret"`
}

type secretJSON struct {
	Type       SecretKind `json:"type"`
	Username   string     `json:"username,omitempty"`
	Password   string     `json:"password,omitempty"`
	KeyPath    string     `json:"path,omitempty"`
	KeyData    string     `json:"key_bytes,omitempty"`
	Passphrase *string    `json:"passphrase,omitempty"`
}

// MarshalJSON serializes the credential, including its secret material,
// for storage inside the encrypted credential file only.
func (c Credential) MarshalJSON() ([]byte, error) {
	sj := secretJSON{Type: c.Secret.Kind, Username: c.Secret.Username}
	if c.Secret.Password != nil {
		sj.Password = c.Secret.Password.String()
	}
	sj.KeyPath = c.Secret.KeyPath
	if c.Secret.KeyData != nil {
		sj.KeyData = c.Secret.KeyData.String()
	}
	if c.Secret.Passphrase != nil {
		p := c.Secret.Passphrase.String()
		sj.Passphrase = &p
	}

	return json.Marshal(credentialJSON{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		LastUsedAt:  c.LastUsedAt,
		Secret:      sj,
	})
}

// UnmarshalJSON parses a credential from its on-disk shape.
func (c *Credential) UnmarshalJSON(data []byte) error {
	var cj credentialJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return fmt.Errorf("model: decode credential: %w", err)
	}

	secret := Secret{Kind: cj.Secret.Type, Username: cj.Secret.Username, KeyPath: cj.Secret.KeyPath}
	switch cj.Secret.Type {
	case SecretDefault:
	case SecretPassword:
		pw := NewSensitiveString(cj.Secret.Password)
		secret.Password = &pw
	case SecretKeyFile:
		if cj.Secret.Passphrase != nil {
			ph := NewSensitiveString(*cj.Secret.Passphrase)
			secret.Passphrase = &ph
		}
	case SecretKeyData:
		kd := NewSensitiveString(cj.Secret.KeyData)
		secret.KeyData = &kd
		if cj.Secret.Passphrase != nil {
			ph := NewSensitiveString(*cj.Secret.Passphrase)
			secret.Passphrase = &ph
		}
	default:
		return fmt.Errorf("model: unknown secret type %q", cj.Secret.Type)
	}

	c.ID = cj.ID
	c.Name = cj.Name
	c.Description = cj.Description
	c.CreatedAt = cj.CreatedAt
	c.LastUsedAt = cj.LastUsedAt
	c.Secret = secret
	return nil
}
