// Package credentials resolves per-provider secrets from user settings and
// gatekeeps dispatch: a missing credential fails the call before any
// network activity.
package credentials

import (
	"sync/atomic"

	"github.com/openbb/platform-core/internal/openbberr"
	"github.com/openbb/platform-core/internal/provider"
)

// Vault holds the process's credential set. Reads are lock-free against an
// immutable snapshot; updates swap the whole snapshot so in-flight calls
// observe a consistent view.
type Vault struct {
	snapshot atomic.Pointer[map[string]Secret]
}

// NewVault creates a vault seeded with the given credentials.
func NewVault(values map[string]string) *Vault {
	v := &Vault{}
	v.Replace(values)
	return v
}

// Replace swaps the entire credential set. Copy-on-write: the previous
// snapshot stays valid for calls already holding it.
func (v *Vault) Replace(values map[string]string) {
	snap := make(map[string]Secret, len(values))
	for k, val := range values {
		snap[k] = NewSecret(val)
	}
	v.snapshot.Store(&snap)
}

func (v *Vault) current() map[string]Secret {
	return *v.snapshot.Load()
}

// CredentialsFor returns the subset of credentials a provider declared,
// by value, ready to pass into a fetch. Fails with MissingCredential
// naming the first absent credential.
func (v *Vault) CredentialsFor(d provider.Descriptor) (provider.Credentials, error) {
	snap := v.current()
	out := make(provider.Credentials, len(d.CredentialNames))
	for _, name := range d.CredentialNames {
		secret, ok := snap[name]
		if !ok || secret.Empty() {
			return nil, openbberr.New(openbberr.KindMissingCredential,
				"provider %q requires credential %q", d.Name, name)
		}
		out[name] = secret.Reveal()
	}
	return out, nil
}

// HasAllRequired reports whether every named credential is present and
// non-empty. Satisfies provider.CredentialChecker.
func (v *Vault) HasAllRequired(credentialNames []string) bool {
	snap := v.current()
	for _, name := range credentialNames {
		secret, ok := snap[name]
		if !ok || secret.Empty() {
			return false
		}
	}
	return true
}

// Masked returns the credential set with every value masked, for rendering
// in settings endpoints.
func (v *Vault) Masked() map[string]string {
	snap := v.current()
	out := make(map[string]string, len(snap))
	for k, s := range snap {
		out[k] = s.String()
	}
	return out
}

// Names returns the names of all stored credentials.
func (v *Vault) Names() []string {
	snap := v.current()
	out := make([]string, 0, len(snap))
	for k := range snap {
		out = append(out, k)
	}
	return out
}
