package credential

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/last-emo-boy/net-monitor/pkg/model"
)

func storePath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "credentials.enc")
}

func passwordSecret(username, password string) model.Secret {
	pw := model.NewSensitiveString(password)
	return model.Secret{Kind: model.SecretPassword, Username: username, Password: &pw}
}

func TestOpenCreatesEmptyStore(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, "correct horse battery staple")
	require.NoError(t, err)
	assert.Empty(t, s.List())
}

func TestAddGetList(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, "hunter2")
	require.NoError(t, err)

	desc := "jump box"
	id, err := s.Add("bastion", &desc, passwordSecret("ops", "s3cret"))
	require.NoError(t, err)
	assert.True(t, len(id) > len("cred_"))

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "bastion", got.Name)
	assert.Equal(t, "ops", got.Secret.Username)
	assert.Equal(t, "s3cret", got.Secret.Password.String())

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "bastion", list[0].Name)
	assert.Equal(t, model.SecretPassword, list[0].Type)
}

func TestUpdatePreservesCreatedAt(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, "hunter2")
	require.NoError(t, err)

	id, err := s.Add("bastion", nil, passwordSecret("ops", "s3cret"))
	require.NoError(t, err)
	original, err := s.Get(id)
	require.NoError(t, err)

	require.NoError(t, s.Update(id, "bastion-renamed", nil, passwordSecret("ops2", "newpass")))

	updated, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "bastion-renamed", updated.Name)
	assert.Equal(t, "ops2", updated.Secret.Username)
	assert.Equal(t, original.CreatedAt, updated.CreatedAt)
}

func TestDelete(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, "hunter2")
	require.NoError(t, err)

	id, err := s.Add("bastion", nil, passwordSecret("ops", "s3cret"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(id))
	_, err = s.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateDeleteUnknownIDReturnsNotFound(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, "hunter2")
	require.NoError(t, err)

	assert.ErrorIs(t, s.Update("cred_doesnotexist", "x", nil, model.Secret{Kind: model.SecretDefault}), ErrNotFound)
	assert.ErrorIs(t, s.Delete("cred_doesnotexist"), ErrNotFound)
}

func TestMarkUsed(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, "hunter2")
	require.NoError(t, err)

	id, err := s.Add("bastion", nil, passwordSecret("ops", "s3cret"))
	require.NoError(t, err)

	before, err := s.Get(id)
	require.NoError(t, err)
	assert.Nil(t, before.LastUsedAt)

	require.NoError(t, s.MarkUsed(id))

	after, err := s.Get(id)
	require.NoError(t, err)
	require.NotNil(t, after.LastUsedAt)
}

// TestRoundTripAcrossReopen checks that encrypt-then-decrypt with the
// same master password yields the original data, reopened from disk.
func TestRoundTripAcrossReopen(t *testing.T) {
	path := storePath(t)
	s1, err := Open(path, "correct horse battery staple")
	require.NoError(t, err)

	desc := "primary bastion"
	id, err := s1.Add("bastion", &desc, passwordSecret("ops", "s3cret"))
	require.NoError(t, err)

	s2, err := Open(path, "correct horse battery staple")
	require.NoError(t, err)

	got, err := s2.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "bastion", got.Name)
	assert.Equal(t, desc, *got.Description)
	assert.Equal(t, "ops", got.Secret.Username)
	assert.Equal(t, "s3cret", got.Secret.Password.String())
}

// TestRoundTripIsByteIdenticalJSON re-decrypts the raw file and checks
// the plaintext JSON is identical across two opens with no changes in
// between.
func TestRoundTripIsByteIdenticalJSON(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, "correct horse battery staple")
	require.NoError(t, err)

	_, err = s.Add("bastion", nil, passwordSecret("ops", "s3cret"))
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	plaintext, err := decrypt("correct horse battery staple", raw)
	require.NoError(t, err)

	s2, err := Open(path, "correct horse battery staple")
	require.NoError(t, err)
	require.NoError(t, s2.save())

	raw2, err := os.ReadFile(path)
	require.NoError(t, err)
	plaintext2, err := decrypt("correct horse battery staple", raw2)
	require.NoError(t, err)

	assert.Equal(t, string(plaintext), string(plaintext2))
}

func TestOpenWithWrongPasswordFails(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, "correct password")
	require.NoError(t, err)
	_, err = s.Add("bastion", nil, passwordSecret("ops", "s3cret"))
	require.NoError(t, err)

	_, err = Open(path, "wrong password")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestOpenWithCorruptedFileFails(t *testing.T) {
	path := storePath(t)
	s, err := Open(path, "correct password")
	require.NoError(t, err)
	_, err = s.Add("bastion", nil, passwordSecret("ops", "s3cret"))
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0600))

	_, err = Open(path, "correct password")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestOpenWithMalformedSaltSeparatorFails(t *testing.T) {
	path := storePath(t)
	require.NoError(t, os.WriteFile(path, []byte("not-a-valid-layout-no-separator"), 0600))

	_, err := Open(path, "whatever")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}
