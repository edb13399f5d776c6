// Package auth owns the single access credential shared by every caller and
// process on the host: a file-backed store guarded by an OS-level lock, and
// a lifecycle manager that refreshes the token proactively.
package auth

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/krx-lab/meridian-trading/internal/types"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

// credentialFileMode keeps the persisted token readable by the owner only.
const credentialFileMode = 0o600

// CredentialStore persists the single live credential record. Reads and
// writes that form a read-modify-write sequence must run inside WithLock so
// two processes never refresh concurrently; the lock is never held across a
// network call.
type CredentialStore struct {
	path string
	lock *flock.Flock
}

// NewCredentialStore creates a store persisting to path. The cross-process
// lock lives next to the credential file.
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// WithLock runs fn while holding the exclusive cross-process lock.
func (s *CredentialStore) WithLock(fn func() error) error {
	if err := s.lock.Lock(); err != nil {
		return errors.Wrap(errors.ErrCodeCredentialLockFailed, "failed to acquire credential lock", err)
	}

	defer s.lock.Unlock() //nolint:errcheck // unlock failure leaves a stale flock, nothing actionable

	return fn()
}

// Load reads the persisted credential. A missing file returns (nil, nil).
// A structurally invalid record (truncated file, short token, missing
// timestamps) is deleted and treated as absent rather than surfaced as a
// parse error.
func (s *CredentialStore) Load() (*types.Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to read credential store", err)
	}

	var cred types.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		// Corrupt cache: recover by discarding it.
		_ = os.Remove(s.path)

		return nil, nil
	}

	if !cred.StructurallyValid() {
		_ = os.Remove(s.path)

		return nil, nil
	}

	cred.Source = types.CredentialSourceCached

	return &cred, nil
}

// Save persists the credential with owner-only permissions. The write goes
// through a temp file and rename so readers never observe a partial record.
func (s *CredentialStore) Save(cred *types.Credential) error {
	if cred == nil || !cred.StructurallyValid() {
		return errors.New(errors.ErrCodeInvalidParameter, "refusing to persist an invalid credential")
	}

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to encode credential", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to create credential directory", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, credentialFileMode); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to write credential file", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to replace credential file", err)
	}

	return nil
}

// Delete removes the persisted credential; a missing file is not an error.
func (s *CredentialStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to delete credential file", err)
	}

	return nil
}
