package sampling

import (
	"os"

	"github.com/awnumar/memguard"

	"github.com/paw-chain/qc/qc/types"
)

// DefaultMasterKeyEnv is the variable EnvSecret reads when none is named.
const DefaultMasterKeyEnv = "QC_MASTER_KEY"

// SecretSource lends the master key to fn for the duration of the call. The
// slice must not be retained after fn returns.
type SecretSource interface {
	UseMasterKey(fn func(key []byte) error) error
}

// EnvSecret reads the master key from an environment variable on every use.
type EnvSecret struct {
	Var string
}

// UseMasterKey implements SecretSource.
func (e EnvSecret) UseMasterKey(fn func(key []byte) error) error {
	name := e.Var
	if name == "" {
		name = DefaultMasterKeyEnv
	}
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return types.ErrMissingMasterKey.Wrapf("environment variable %s is not set", name)
	}
	return fn([]byte(v))
}

// EnclaveSecret keeps the master key encrypted in memguard-protected memory
// and decrypts it into a locked buffer only while fn runs.
type EnclaveSecret struct {
	enclave *memguard.Enclave
}

// NewEnclaveSecret seals key. The caller's slice is wiped.
func NewEnclaveSecret(key []byte) (*EnclaveSecret, error) {
	if len(key) == 0 {
		return nil, types.ErrMissingMasterKey.Wrap("empty master key")
	}
	return &EnclaveSecret{enclave: memguard.NewEnclave(key)}, nil
}

// EnclaveSecretFromEnv seals the value of an environment variable and unsets
// it, so the plaintext does not outlive process start.
func EnclaveSecretFromEnv(name string) (*EnclaveSecret, error) {
	if name == "" {
		name = DefaultMasterKeyEnv
	}
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil, types.ErrMissingMasterKey.Wrapf("environment variable %s is not set", name)
	}
	if err := os.Unsetenv(name); err != nil {
		return nil, err
	}
	return NewEnclaveSecret([]byte(v))
}

// UseMasterKey implements SecretSource.
func (e *EnclaveSecret) UseMasterKey(fn func(key []byte) error) error {
	if e == nil || e.enclave == nil {
		return types.ErrMissingMasterKey.Wrap("enclave not initialized")
	}
	buf, err := e.enclave.Open()
	if err != nil {
		return types.ErrMissingMasterKey.Wrapf("open enclave: %s", err)
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

// StaticSecret is a fixed in-memory key, for tests and tooling.
type StaticSecret []byte

// UseMasterKey implements SecretSource.
func (s StaticSecret) UseMasterKey(fn func(key []byte) error) error {
	if len(s) == 0 {
		return types.ErrMissingMasterKey.Wrap("empty master key")
	}
	return fn(s)
}
