package cryptoutil

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"testing"

	"github.com/wisbric/mindconnect-agent/internal/mclerror"
)

func TestBase64RoundTrip(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	encoded := Base64(data)
	decoded, err := Base64Decode(encoded)
	if err != nil {
		t.Fatalf("Base64Decode() error: %v", err)
	}
	if !bytes.Equal(data, decoded) {
		t.Fatalf("round trip mismatch: got %q, want %q", decoded, data)
	}
}

func TestBase64URLRoundTrip(t *testing.T) {
	data := []byte{0x00, 0xff, 0x10, 0x20, 0xfe}
	encoded := Base64URL(data)
	decoded, err := Base64URLDecode(encoded)
	if err != nil {
		t.Fatalf("Base64URLDecode() error: %v", err)
	}
	if !bytes.Equal(data, decoded) {
		t.Fatalf("round trip mismatch: got %v, want %v", decoded, data)
	}
}

func TestBase64URLDecodeRejectsInvalidCharacters(t *testing.T) {
	_, err := Base64URLDecode("not!valid!base64url")
	if err == nil {
		t.Fatal("expected an error for invalid base64url input")
	}
	var mclErr *mclerror.Error
	if !asMCLError(err, &mclErr) || mclErr.Kind != mclerror.BadContentEncoding {
		t.Fatalf("expected BadContentEncoding, got %v", err)
	}
}

func asMCLError(err error, target **mclerror.Error) bool {
	e, ok := err.(*mclerror.Error)
	if !ok {
		return false
	}
	*target = e
	return true
}

func TestGUIDIs32HexChars(t *testing.T) {
	g := GUID()
	if len(g) != 32 {
		t.Fatalf("GUID() length = %d, want 32", len(g))
	}
	for _, r := range g {
		isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		if !isHex {
			t.Fatalf("GUID() contains non-hex character %q", r)
		}
	}
}

func TestGUIDIsUnique(t *testing.T) {
	if GUID() == GUID() {
		t.Fatal("two consecutive GUIDs were identical")
	}
}

func TestSHA256MatchesStdlib(t *testing.T) {
	data := []byte("mindconnect")
	want := sha256.Sum256(data)
	got := SHA256(data)
	if !bytes.Equal(got, want[:]) {
		t.Fatalf("SHA256() = %x, want %x", got, want)
	}
}

func TestHMACSHA256MatchesStdlib(t *testing.T) {
	key := []byte("client-secret")
	data := []byte("payload")

	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	want := mac.Sum(nil)

	got := HMACSHA256(key, data)
	if !bytes.Equal(got, want) {
		t.Fatalf("HMACSHA256() = %x, want %x", got, want)
	}
}

func TestRSA3072KeypairSignAndModulusExponent(t *testing.T) {
	pub, priv, err := GenerateRSA3072()
	if err != nil {
		t.Fatalf("GenerateRSA3072() error: %v", err)
	}
	if pub == "" || priv == "" {
		t.Fatal("expected non-empty PEM for both keys")
	}

	sig, err := RSASign(priv, []byte("self-issued-jwt-signing-input"))
	if err != nil {
		t.Fatalf("RSASign() error: %v", err)
	}
	if len(sig) != 3072/8 {
		t.Fatalf("signature length = %d, want %d", len(sig), 3072/8)
	}

	n, e, err := RSAModulusExponent(pub)
	if err != nil {
		t.Fatalf("RSAModulusExponent() error: %v", err)
	}
	if n == "" || e == "" {
		t.Fatal("expected non-empty modulus and exponent")
	}
}
