// Package security is the Security Handler: a pure in-memory vault for an
// agent's identity, credential material, and session state, plus the
// crypto helpers the credential processor drives it with. It mirrors the
// teacher's internal/auth.SessionManager in shape (a small struct guarding
// mutable secrets behind named methods) but holds a device's own
// credentials rather than a server-side session table.
package security

import (
	"time"

	"golang.org/x/oauth2"

	"github.com/wisbric/mindconnect-agent/internal/cryptoutil"
	"github.com/wisbric/mindconnect-agent/internal/mclerror"
)

// Profile identifies which credential material variant an identity holds.
type Profile string

const (
	SharedSecret Profile = "SharedSecret"
	RSA3072      Profile = "RSA3072"
)

// Identity is the stable, per-device identity. client_id is never mutated
// in place: rotations replace the whole Identity value atomically.
type Identity struct {
	ClientID string
	Tenant   string
	Profile  Profile
}

// Credentials is the variant over Profile, plus the fields every profile
// carries. For RSA3072, PrivateKeyPEM is present iff PublicKeyPEM is
// present — Handler.SetRSACredentials is the only way to set either, so
// that invariant holds by construction.
type Credentials struct {
	ClientSecret  string // SharedSecret only
	PublicKeyPEM  string // RSA3072 only
	PrivateKeyPEM string // RSA3072 only

	RegistrationAccessToken string
	RegistrationURI         string
}

// Session is the ephemeral per-connection state. AccessToken is modeled as
// an oauth2.Token rather than a bare string so callers get (*oauth2.Token).
// Valid()/SetAuthHeader for free; Expiry is left zero since the core does
// not track access-token lifetime itself (§3: any non-OK response
// implicitly invalidates it).
type Session struct {
	AccessToken   *oauth2.Token
	LastTokenTime time.Time
}

// Handler is the in-memory vault. Zero value is a valid, empty handler.
type Handler struct {
	identity    Identity
	credentials Credentials
	session     Session
}

// NewHandler returns an empty Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Identity returns the currently held identity.
func (h *Handler) Identity() Identity { return h.identity }

// Credentials returns the currently held credential material.
func (h *Handler) Credentials() Credentials { return h.credentials }

// Session returns the currently held session state.
func (h *Handler) Session() Session { return h.session }

// IsRegistered reports whether client_id is set, the processor's single
// state variable per §4.7.
func (h *Handler) IsRegistered() bool { return h.identity.ClientID != "" }

// SetIdentity replaces the held identity. Onboarding and rotation both
// call this; rotation passes back the same client_id, tenant and profile.
func (h *Handler) SetIdentity(identity Identity) {
	h.identity = identity
}

// SetSharedSecretCredentials atomically replaces the SharedSecret
// credential fields, clearing any RSA fields a prior profile may have
// left behind.
func (h *Handler) SetSharedSecretCredentials(clientSecret, registrationAccessToken, registrationURI string) {
	h.credentials = Credentials{
		ClientSecret:            clientSecret,
		RegistrationAccessToken: registrationAccessToken,
		RegistrationURI:         registrationURI,
	}
}

// SetRSACredentials atomically replaces the RSA3072 credential fields.
func (h *Handler) SetRSACredentials(publicKeyPEM, privateKeyPEM, registrationAccessToken, registrationURI string) {
	h.credentials = Credentials{
		PublicKeyPEM:            publicKeyPEM,
		PrivateKeyPEM:           privateKeyPEM,
		RegistrationAccessToken: registrationAccessToken,
		RegistrationURI:         registrationURI,
	}
}

// SetAccessToken records a freshly acquired access token and, when
// serverTime is non-zero, the server-reported wall clock it arrived with.
func (h *Handler) SetAccessToken(token string, serverTime time.Time) {
	h.session.AccessToken = &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
	if !serverTime.IsZero() {
		h.session.LastTokenTime = serverTime
	}
}

// InvalidateAccessToken clears the held access token, matching §3's "any
// non-OK response treated as authentication failure invalidates it
// implicitly".
func (h *Handler) InvalidateAccessToken() {
	h.session.AccessToken = nil
}

// GenerateRSAKey generates a fresh RSA-3072 keypair and returns it without
// installing it; callers install it with SetRSACredentials (the credential
// processor does so before sending a rotate PUT).
func (h *Handler) GenerateRSAKey() (publicPEM, privatePEM string, err error) {
	return cryptoutil.GenerateRSA3072()
}

// GenerateJTI returns a fresh 32-hex-char identifier for a JWT jti claim
// or a Correlation-ID header.
func (h *Handler) GenerateJTI() string {
	return cryptoutil.GUID()
}

// HashSHA256 returns the SHA-256 digest of data.
func (h *Handler) HashSHA256(data []byte) []byte {
	return cryptoutil.SHA256(data)
}

// HMACSHA256 returns the HMAC-SHA256 of data keyed by the held
// ClientSecret. Fails with InvalidParameter when no SharedSecret
// credential is held.
func (h *Handler) HMACSHA256(data []byte) ([]byte, error) {
	if h.credentials.ClientSecret == "" {
		return nil, mclerror.New(mclerror.InvalidParameter, "no client_secret held")
	}
	return cryptoutil.HMACSHA256([]byte(h.credentials.ClientSecret), data), nil
}

// RSASign signs data with the held PrivateKeyPEM. Fails with
// InvalidParameter when no RSA3072 credential is held.
func (h *Handler) RSASign(data []byte) ([]byte, error) {
	if h.credentials.PrivateKeyPEM == "" {
		return nil, mclerror.New(mclerror.InvalidParameter, "no private_key held")
	}
	return cryptoutil.RSASign(h.credentials.PrivateKeyPEM, data)
}

// Base64Encode/Base64Decode/Base64URLEncode/Base64URLDecode forward to the
// Crypto Facade so callers that only hold a *Handler don't need a second
// import for encoding helpers.

func (h *Handler) Base64Encode(data []byte) string       { return cryptoutil.Base64(data) }
func (h *Handler) Base64Decode(s string) ([]byte, error) { return cryptoutil.Base64Decode(s) }
func (h *Handler) Base64URLEncode(data []byte) string    { return cryptoutil.Base64URL(data) }
func (h *Handler) Base64URLDecode(s string) ([]byte, error) {
	return cryptoutil.Base64URLDecode(s)
}

// Destroy clears every credential field, mirroring the source's
// zero-before-free discipline for sensitive material.
func (h *Handler) Destroy() {
	h.identity = Identity{}
	h.credentials = Credentials{}
	h.session = Session{}
}
