package manifest

import (
	"bytes"
	"fmt"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// Verifier checks detached OpenPGP signatures against the framework
// release keyring.
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier creates a verifier from an armored keyring.
func NewVerifier(armoredKeyring []byte) (*Verifier, error) {
	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(armoredKeyring))
	if err != nil {
		return nil, fmt.Errorf("read keyring: %w", err)
	}
	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring contains no keys")
	}
	return &Verifier{keyring: keyring}, nil
}

// VerifyDetached checks that sig is a valid detached signature over
// data by a key in the keyring. Armored signatures are tried first,
// then binary.
func (v *Verifier) VerifyDetached(data, sig []byte) error {
	_, err := openpgp.CheckArmoredDetachedSignature(
		v.keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	if err == nil {
		return nil
	}

	_, err = openpgp.CheckDetachedSignature(
		v.keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}

	return nil
}
