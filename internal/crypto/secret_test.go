package crypto

import (
	"errors"
	"testing"

	"github.com/avolkov86/passvault/internal/errs"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := RandBytes(KeySize)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	return key
}

func TestNewSecretCipher_KeyLength(t *testing.T) {
	t.Parallel()
	if _, err := NewSecretCipher([]byte("short")); err == nil {
		t.Fatalf("want error on short key")
	}
	if _, err := NewSecretCipher(testKey(t)); err != nil {
		t.Fatalf("NewSecretCipher: %v", err)
	}
}

func TestParseKey(t *testing.T) {
	t.Parallel()
	if _, err := ParseKey("zz"); err == nil {
		t.Fatalf("want error on non-hex key")
	}
	if _, err := ParseKey("00ff"); err == nil {
		t.Fatalf("want error on short key")
	}
	key, err := ParseKey("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if len(key) != KeySize {
		t.Fatalf("len=%d, want=%d", len(key), KeySize)
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	t.Parallel()
	c, err := NewSecretCipher(testKey(t))
	if err != nil {
		t.Fatalf("NewSecretCipher: %v", err)
	}
	for _, plain := range []string{"", "hunter2", "пароль", "a very long secret with spaces and symbols !@#$%"} {
		ct, err := c.Encrypt(plain)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", plain, err)
		}
		got, err := c.Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt(%q): %v", plain, err)
		}
		if got != plain {
			t.Fatalf("round trip: got %q, want %q", got, plain)
		}
	}
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	t.Parallel()
	c, _ := NewSecretCipher(testKey(t))
	a, _ := c.Encrypt("same")
	b, _ := c.Encrypt("same")
	if a == b {
		t.Fatalf("two encryptions of the same plaintext must differ")
	}
}

func TestDecrypt_MalformedInput_Sentinel(t *testing.T) {
	t.Parallel()
	c, _ := NewSecretCipher(testKey(t))
	for _, ct := range []string{"", "not base64!!", "aGVsbG8=", "AAAA"} {
		_, err := c.Decrypt(ct)
		if !errors.Is(err, errs.ErrDecryption) {
			t.Fatalf("Decrypt(%q): err=%v, want ErrDecryption", ct, err)
		}
	}
}

func TestDecrypt_ForeignKey_Sentinel(t *testing.T) {
	t.Parallel()
	c1, _ := NewSecretCipher(testKey(t))
	c2, _ := NewSecretCipher(testKey(t))
	ct, err := c1.Encrypt("alpha")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := c2.Decrypt(ct); !errors.Is(err, errs.ErrDecryption) {
		t.Fatalf("foreign-key decrypt: err=%v, want ErrDecryption", err)
	}
}

func TestDecryptForDisplay(t *testing.T) {
	t.Parallel()
	c, _ := NewSecretCipher(testKey(t))
	ct, _ := c.Encrypt("beta")
	if got := c.DecryptForDisplay(ct); got != "beta" {
		t.Fatalf("got %q, want beta", got)
	}
	if got := c.DecryptForDisplay("garbage"); got != DisplayPlaceholder {
		t.Fatalf("got %q, want placeholder", got)
	}
}
