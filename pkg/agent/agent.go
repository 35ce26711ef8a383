package agent

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/wisbric/mindconnect-agent/internal/cryptoutil"
	"github.com/wisbric/mindconnect-agent/internal/jsonutil"
	"github.com/wisbric/mindconnect-agent/internal/jwtutil"
	"github.com/wisbric/mindconnect-agent/internal/mclerror"
	"github.com/wisbric/mindconnect-agent/internal/telemetry"
	"github.com/wisbric/mindconnect-agent/internal/transport"
	"github.com/wisbric/mindconnect-agent/pkg/security"
)

// Core ties a validated Config to its own security handler and transport
// client. It exclusively owns all three; a Core must outlive any
// datalake.Handle borrowing its client/identity/token.
type Core struct {
	cfg       *Config
	security  *security.Handler
	transport *transport.Client
}

// New initializes a Core per §4.7: if credential callbacks are configured,
// it attempts to load existing credentials first, falling back to the
// initial-access-token path on CredentialsNotLoaded. Without callbacks, an
// IAT is required outright.
func New(cfg *Config, logger *slog.Logger) (*Core, error) {
	if logger == nil {
		logger = telemetry.NewLogger("json", "info")
	}

	cert, err := cfg.Certificate()
	if err != nil {
		return nil, err
	}
	httpClient, err := transport.NewClientWithCertificate(cfg.HTTPRequestTimeout, cert, logger)
	if err != nil {
		return nil, err
	}

	c := &Core{
		cfg:       cfg,
		security:  security.NewHandler(),
		transport: httpClient,
	}

	if cfg.CredentialsLoadCallback != nil {
		stored, err := cfg.CredentialsLoadCallback()
		switch {
		case err == nil:
			c.installStored(stored)
			return c, nil
		case mclerror.KindOf(err) == mclerror.CredentialsNotLoaded:
			// fall through to the IAT path below.
		default:
			return nil, err
		}
	}

	if cfg.InitialAccessToken == "" {
		return nil, mclerror.New(mclerror.NoAccessTokenProvided, "no credential store and no initial_access_token configured")
	}
	if cfg.SecurityProfile == security.RSA3072 {
		pub, priv, err := c.security.GenerateRSAKey()
		if err != nil {
			return nil, err
		}
		c.security.SetRSACredentials(pub, priv, "", "")
	}
	c.security.SetIdentity(security.Identity{Tenant: cfg.Tenant, Profile: cfg.SecurityProfile})

	return c, nil
}

func (c *Core) installStored(s security.StoredCredentials) {
	c.security.SetIdentity(security.Identity{ClientID: s.ClientID, Tenant: s.Tenant, Profile: s.Profile})
	if s.Profile == security.RSA3072 {
		c.security.SetRSACredentials(s.PublicKeyPEM, s.PrivateKeyPEM, s.RegistrationAccessToken, s.RegistrationURI)
	} else {
		c.security.SetSharedSecretCredentials(s.ClientSecret, s.RegistrationAccessToken, s.RegistrationURI)
	}
}

// IsOnboarded reports whether the Core currently holds a client_id,
// mirroring the processor's single state variable.
func (c *Core) IsOnboarded() bool { return c.security.IsRegistered() }

// Identity returns the Core's current identity.
func (c *Core) Identity() security.Identity { return c.security.Identity() }

// AccessToken returns the bearer token from the last successful
// GetAccessToken call, or "" if none has succeeded yet.
func (c *Core) AccessToken() string {
	session := c.security.Session()
	if session.AccessToken == nil {
		return ""
	}
	return session.AccessToken.AccessToken
}

// Transport returns the Core's http client for callers that borrow it per
// §3's ownership rules (the Data-Lake handle, for calls against the same
// gateway host).
func (c *Core) Transport() *transport.Client { return c.transport }

// Host returns the configured gateway host, with any trailing slash
// trimmed, matching the composition RegisterEndpoint/TokenEndpoint use.
func (c *Core) Host() string { return strings.TrimRight(c.cfg.Host, "/") }

// UserAgentHeader returns the User-Agent header value every borrowed caller
// must also emit.
func (c *Core) UserAgentHeader() string { return c.cfg.UserAgentHeader() }

// RequestTimeout returns the configured per-request timeout, for borrowers
// that build their own transport.Client against a different host (e.g. the
// Data-Lake handle's object-store client).
func (c *Core) RequestTimeout() time.Duration { return c.cfg.HTTPRequestTimeout }

func (c *Core) withCriticalSection(fn func() error) error {
	cs := c.cfg.CriticalSection
	if cs != nil && cs.Enter != nil {
		cs.Enter()
		defer cs.Leave()
	}
	return fn()
}

func correlationID() string { return cryptoutil.GUID() }

// Onboard registers the agent (POST /register). Per the state machine in
// §4.7, callers are expected to check IsOnboarded() first — an
// already-onboarded Core has no client-visible "re-register", only Rotate.
func (c *Core) Onboard(ctx context.Context) error {
	return c.withCriticalSection(func() error { return c.onboard(ctx) })
}

func (c *Core) onboard(ctx context.Context) error {
	body, err := c.registerBody()
	if err != nil {
		return err
	}

	req := transport.NewRequest("POST", c.cfg.RegisterEndpoint(), body)
	req.Headers.Add("Content-Type", "application/json")
	req.Headers.Add("Accept", "application/json")
	req.Headers.Add("Authorization", "Bearer "+c.cfg.InitialAccessToken)
	req.Headers.Add("User-Agent", c.cfg.UserAgentHeader())
	corr := correlationID()
	req.Headers.Add("Correlation-ID", corr)

	resp, err := c.transport.Send(ctx, req, corr, "onboard")
	if err != nil {
		telemetry.OnboardTotal.WithLabelValues("transport_error").Inc()
		return err
	}
	if resp.StatusCode != 201 {
		kind := resp.Kind()
		if mclerror.IsSuccess(kind) {
			kind = mclerror.UnexpectedResultCode
		}
		telemetry.OnboardTotal.WithLabelValues(string(kind)).Inc()
		return mclerror.Newf(kind, "onboarding failed with status %d", resp.StatusCode)
	}

	parsed, err := parseCredentialResponse(resp.Body)
	if err != nil {
		telemetry.OnboardTotal.WithLabelValues("parse_error").Inc()
		return err
	}

	c.security.SetIdentity(security.Identity{ClientID: parsed.clientID, Tenant: c.cfg.Tenant, Profile: c.cfg.SecurityProfile})
	if c.cfg.SecurityProfile == security.RSA3072 {
		existing := c.security.Credentials()
		c.security.SetRSACredentials(existing.PublicKeyPEM, existing.PrivateKeyPEM, parsed.registrationAccessToken, parsed.registrationURI)
	} else {
		c.security.SetSharedSecretCredentials(parsed.clientSecret, parsed.registrationAccessToken, parsed.registrationURI)
	}

	telemetry.OnboardTotal.WithLabelValues("ok").Inc()
	return c.saveCredentials()
}

// Rotate rotates the held credential material (PUT registration_uri). For
// RSA3072, a fresh keypair is generated before the PUT so a failed request
// never desynchronizes the sent public key from the retained private key.
func (c *Core) Rotate(ctx context.Context) error {
	return c.withCriticalSection(func() error { return c.rotate(ctx) })
}

func (c *Core) rotate(ctx context.Context) error {
	identity := c.security.Identity()
	creds := c.security.Credentials()

	var newPub, newPriv string
	body := jsonutil.Initialize(jsonutil.KindObject)
	_ = body.AddString("client_id", identity.ClientID)

	if identity.Profile == security.RSA3072 {
		var err error
		newPub, newPriv, err = c.security.GenerateRSAKey()
		if err != nil {
			return err
		}
		c.security.SetRSACredentials(newPub, newPriv, creds.RegistrationAccessToken, creds.RegistrationURI)
		jwks, err := buildJWKS(newPub)
		if err != nil {
			return err
		}
		if err := body.AddObject("jwks", jwks); err != nil {
			return mclerror.Wrap(mclerror.Fail, "attaching jwks to rotate body", err)
		}
	}

	req := transport.NewRequest("PUT", creds.RegistrationURI, []byte(body.ToString()))
	req.Headers.Add("Content-Type", "application/json")
	req.Headers.Add("Accept", "application/json")
	req.Headers.Add("Authorization", "Bearer "+creds.RegistrationAccessToken)
	req.Headers.Add("User-Agent", c.cfg.UserAgentHeader())
	corr := correlationID()
	req.Headers.Add("Correlation-ID", corr)

	resp, err := c.transport.Send(ctx, req, corr, "rotate")
	if err != nil {
		return err
	}
	if resp.StatusCode != 200 {
		return mclerror.Newf(resp.Kind(), "rotation failed with status %d", resp.StatusCode)
	}

	parsed, err := parseCredentialResponse(resp.Body)
	if err != nil {
		return err
	}

	if identity.Profile == security.RSA3072 {
		c.security.SetRSACredentials(newPub, newPriv, parsed.registrationAccessToken, parsed.registrationURI)
	} else {
		c.security.SetSharedSecretCredentials(parsed.clientSecret, parsed.registrationAccessToken, parsed.registrationURI)
	}
	c.security.SetIdentity(security.Identity{ClientID: identity.ClientID, Tenant: identity.Tenant, Profile: identity.Profile})

	return c.saveCredentials()
}

// UpdateCredentials reconciles in-memory state against an external
// reconciliation source (the configured load callback), short-circuiting
// with CredentialsUpToDate when the loaded material is byte-identical.
func (c *Core) UpdateCredentials(ctx context.Context) error {
	return c.withCriticalSection(func() error { return c.updateCredentials() })
}

func (c *Core) updateCredentials() error {
	if c.cfg.CredentialsLoadCallback == nil {
		return mclerror.New(mclerror.InvalidParameter, "no credentials load callback configured")
	}

	stored, err := c.cfg.CredentialsLoadCallback()
	if err != nil {
		return err
	}

	identity := c.security.Identity()
	if stored.ClientID != identity.ClientID {
		return mclerror.New(mclerror.InvalidParameter, "loaded client_id does not match current client_id")
	}

	creds := c.security.Credentials()
	sameSecretMaterial := stored.ClientSecret == creds.ClientSecret &&
		stored.PublicKeyPEM == creds.PublicKeyPEM &&
		stored.PrivateKeyPEM == creds.PrivateKeyPEM
	sameRegistrationToken := stored.RegistrationAccessToken == creds.RegistrationAccessToken

	if sameSecretMaterial && sameRegistrationToken {
		return mclerror.New(mclerror.CredentialsUpToDate, "loaded credentials match in-memory state")
	}

	c.installStored(stored)
	return nil
}

func (c *Core) saveCredentials() error {
	if c.cfg.CredentialsSaveCallback == nil {
		return nil
	}
	identity := c.security.Identity()
	creds := c.security.Credentials()
	stored := security.StoredCredentials{
		ClientID:                identity.ClientID,
		Tenant:                  identity.Tenant,
		Profile:                 identity.Profile,
		ClientSecret:            creds.ClientSecret,
		PublicKeyPEM:            creds.PublicKeyPEM,
		PrivateKeyPEM:           creds.PrivateKeyPEM,
		RegistrationAccessToken: creds.RegistrationAccessToken,
		RegistrationURI:         creds.RegistrationURI,
	}
	if err := c.cfg.CredentialsSaveCallback(stored); err != nil {
		return mclerror.Wrap(mclerror.CredentialsNotSaved, "saving credentials", err)
	}
	return nil
}

// GetAccessToken acquires a fresh access token (POST /token) using a
// self-issued JWT assertion signed with the held credential material.
func (c *Core) GetAccessToken(ctx context.Context) error {
	identity := c.security.Identity()
	creds := c.security.Credentials()

	assertion := jwtutil.Assertion{ClientID: identity.ClientID, Tenant: identity.Tenant, IssuedAt: c.now()}

	var jwt string
	var err error
	if identity.Profile == security.RSA3072 {
		jwt, err = jwtutil.SignRSA(assertion, creds.PrivateKeyPEM)
	} else {
		jwt, err = jwtutil.SignHMAC(assertion, creds.ClientSecret)
	}
	if err != nil {
		telemetry.TokenRefreshTotal.WithLabelValues("sign_error").Inc()
		return err
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_assertion_type", "urn:ietf:params:oauth:client-assertion-type:jwt-bearer")
	form.Set("client_assertion", jwt)
	encoded := form.Encode()

	req := transport.NewRequest("POST", c.cfg.TokenEndpoint(), []byte(encoded))
	req.Headers.Add("Content-Type", "application/x-www-form-urlencoded")
	req.Headers.Add("User-Agent", c.cfg.UserAgentHeader())
	corr := correlationID()
	req.Headers.Add("Correlation-ID", corr)

	resp, err := c.transport.Send(ctx, req, corr, "token")
	if err != nil {
		telemetry.TokenRefreshTotal.WithLabelValues("transport_error").Inc()
		c.security.InvalidateAccessToken()
		return err
	}
	if resp.StatusCode != 200 {
		telemetry.TokenRefreshTotal.WithLabelValues(string(resp.Kind())).Inc()
		c.security.InvalidateAccessToken()
		return mclerror.Newf(resp.Kind(), "token request failed with status %d", resp.StatusCode)
	}

	serverTime := time.Time{}
	if raw, ok := resp.Headers.Get("Server-Time"); ok {
		if parsed, parseErr := time.Parse(time.RFC1123, raw); parseErr == nil {
			serverTime = parsed
		}
	}

	root, err := jsonutil.Parse(resp.Body)
	if err != nil {
		telemetry.TokenRefreshTotal.WithLabelValues("parse_error").Inc()
		return err
	}
	tokenValue, ok := root.GetObjectItem("access_token")
	if !ok {
		telemetry.TokenRefreshTotal.WithLabelValues("parse_error").Inc()
		return mclerror.New(mclerror.Fail, "token response missing access_token")
	}
	token, err := tokenValue.GetString()
	if err != nil {
		telemetry.TokenRefreshTotal.WithLabelValues("parse_error").Inc()
		return err
	}

	c.security.SetAccessToken(token, serverTime)
	telemetry.TokenRefreshTotal.WithLabelValues("ok").Inc()
	return nil
}

func (c *Core) now() time.Time {
	session := c.security.Session()
	if !session.LastTokenTime.IsZero() {
		return session.LastTokenTime
	}
	return time.Now().UTC()
}

// registerBody builds the onboarding request body for the current
// security profile: "{}" for SharedSecret, a JWKS-shaped object built from
// the keypair New() already generated for RSA3072.
func (c *Core) registerBody() ([]byte, error) {
	root := jsonutil.Initialize(jsonutil.KindObject)
	if c.cfg.SecurityProfile != security.RSA3072 {
		return []byte(root.ToString()), nil
	}

	jwks, err := buildJWKS(c.security.Credentials().PublicKeyPEM)
	if err != nil {
		return nil, err
	}
	if err := root.AddObject("jwks", jwks); err != nil {
		return nil, mclerror.Wrap(mclerror.Fail, "attaching jwks to register body", err)
	}
	return []byte(root.ToString()), nil
}

func buildJWKS(publicPEM string) (*jsonutil.Value, error) {
	n, e, err := cryptoutil.RSAModulusExponent(publicPEM)
	if err != nil {
		return nil, err
	}

	key := jsonutil.Initialize(jsonutil.KindObject)
	_ = key.AddString("e", e)
	_ = key.AddString("n", n)
	_ = key.AddString("kty", "RSA")
	_ = key.AddString("kid", cryptoutil.GUID())

	keys := jsonutil.Initialize(jsonutil.KindArray)
	if err := keys.AddItemToArray(key); err != nil {
		return nil, mclerror.Wrap(mclerror.Fail, "building jwks keys array", err)
	}

	jwks := jsonutil.Initialize(jsonutil.KindObject)
	if err := jwks.AddObject("keys", keys); err != nil {
		return nil, mclerror.Wrap(mclerror.Fail, "building jwks object", err)
	}
	return jwks, nil
}

type credentialResponse struct {
	clientID                string
	clientSecret            string
	registrationAccessToken string
	registrationURI         string
}

func parseCredentialResponse(body []byte) (credentialResponse, error) {
	root, err := jsonutil.Parse(body)
	if err != nil {
		return credentialResponse{}, err
	}

	var out credentialResponse
	out.clientID, err = requireString(root, "client_id")
	if err != nil {
		return credentialResponse{}, err
	}
	out.registrationAccessToken, err = requireString(root, "registration_access_token")
	if err != nil {
		return credentialResponse{}, err
	}
	out.registrationURI, err = requireString(root, "registration_client_uri")
	if err != nil {
		return credentialResponse{}, err
	}
	if secret, ok := root.GetObjectItem("client_secret"); ok {
		out.clientSecret, _ = secret.GetString()
	}
	return out, nil
}

func requireString(root *jsonutil.Value, name string) (string, error) {
	v, ok := root.GetObjectItem(name)
	if !ok {
		return "", mclerror.Newf(mclerror.Fail, "response missing required field %q", name)
	}
	s, err := v.GetString()
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", mclerror.Newf(mclerror.Fail, "response field %q is empty", name)
	}
	return s, nil
}
