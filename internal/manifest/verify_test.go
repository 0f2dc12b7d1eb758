package manifest

import (
	"bytes"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// makeSigner generates a throwaway signing key and returns the armored
// public keyring plus a function producing detached signatures.
func makeSigner(t *testing.T) ([]byte, func(data []byte) []byte) {
	t.Helper()

	entity, err := openpgp.NewEntity("Test Signer", "", "signer@test.invalid", nil)
	if err != nil {
		t.Fatalf("generate entity: %v", err)
	}

	var pub bytes.Buffer
	armorWriter, err := armor.Encode(&pub, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("armor encode: %v", err)
	}
	if err := entity.Serialize(armorWriter); err != nil {
		t.Fatalf("serialize public key: %v", err)
	}
	if err := armorWriter.Close(); err != nil {
		t.Fatalf("close armor writer: %v", err)
	}

	sign := func(data []byte) []byte {
		var sig bytes.Buffer
		if err := openpgp.ArmoredDetachSign(&sig, entity, bytes.NewReader(data), nil); err != nil {
			t.Fatalf("detach sign: %v", err)
		}
		return sig.Bytes()
	}

	return pub.Bytes(), sign
}

func TestVerifier_VerifyDetached(t *testing.T) {
	keyring, sign := makeSigner(t)

	verifier, err := NewVerifier(keyring)
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}

	data := []byte(`agent = { helper = "busybox", assets = { arm = "busybox-arm" } }`)
	sig := sign(data)

	if err := verifier.VerifyDetached(data, sig); err != nil {
		t.Errorf("VerifyDetached() error = %v", err)
	}

	// Tampered content must fail
	tampered := append([]byte{}, data...)
	tampered[0] = 'A'
	if err := verifier.VerifyDetached(tampered, sig); err == nil {
		t.Error("VerifyDetached() should fail for tampered data")
	}

	// Signature from a different key must fail
	otherKeyring, otherSign := makeSigner(t)
	if err := verifier.VerifyDetached(data, otherSign(data)); err == nil {
		t.Error("VerifyDetached() should fail for foreign signature")
	}
	_ = otherKeyring
}

func TestNewVerifier_BadKeyring(t *testing.T) {
	if _, err := NewVerifier([]byte("not a keyring")); err == nil {
		t.Error("NewVerifier() should fail for garbage input")
	}
	if _, err := NewVerifier(nil); err == nil {
		t.Error("NewVerifier() should fail for empty input")
	}
}

func TestEmbeddedKeyringParses(t *testing.T) {
	if _, err := NewVerifier(embeddedKeyring); err != nil {
		t.Errorf("embedded keyring should parse: %v", err)
	}
}
