// Package jwtutil builds the self-issued JWT assertion the agent presents
// to the OAuth2 token endpoint. It follows the same construction the
// teacher's internal/auth/session.go SessionManager uses for its own
// self-signed session tokens — go-jose's Signer + jwt.Claims — pointed at
// the agent's own held credential instead of a server-side session secret.
package jwtutil

import (
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/wisbric/mindconnect-agent/internal/cryptoutil"
	"github.com/wisbric/mindconnect-agent/internal/mclerror"
)

// Audience is the fixed audience claim every assertion carries.
const Audience = "southgate"

// Schemas is the fixed schemas claim every assertion carries.
var Schemas = []string{"urn:siemens:mindsphere:v1"}

// ExpirationTime is how long past iat the assertion is valid for (exp =
// iat + ExpirationTime).
const ExpirationTime = 1 * time.Hour

// Algorithm selects the signing algorithm for a self-issued assertion.
type Algorithm int

const (
	HS256 Algorithm = iota
	RS256
)

// Assertion holds the inputs to a self-issued JWT, one per §4.5.
type Assertion struct {
	ClientID string // iss == sub == client_id
	Tenant   string // ten
	IssuedAt time.Time
}

// customClaims carries the two claims outside go-jose's registered set.
type customClaims struct {
	Schemas []string `json:"schemas"`
	Tenant  string   `json:"ten"`
}

// SignHMAC builds and signs a compact JWS using HMAC-SHA256 over the shared
// secret, for the SharedSecret security profile.
func SignHMAC(a Assertion, clientSecret string) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte(clientSecret)},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", mclerror.Wrap(mclerror.Fail, "creating HMAC signer", err)
	}
	return sign(signer, a)
}

// SignRSA builds and signs a compact JWS using RSASSA-PKCS1-v1_5-SHA256
// over the held private key, for the RSA3072 security profile.
func SignRSA(a Assertion, privateKeyPEM string) (string, error) {
	key, err := cryptoutil.ParseRSAPrivateKeyPEM(privateKeyPEM)
	if err != nil {
		return "", err
	}
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", mclerror.Wrap(mclerror.Fail, "creating RSA signer", err)
	}
	return sign(signer, a)
}

func sign(signer jose.Signer, a Assertion) (string, error) {
	jti := cryptoutil.GUID()

	registered := jwt.Claims{
		Issuer:    a.ClientID,
		Subject:   a.ClientID,
		Audience:  jwt.Audience{Audience},
		IssuedAt:  jwt.NewNumericDate(a.IssuedAt),
		NotBefore: jwt.NewNumericDate(a.IssuedAt),
		Expiry:    jwt.NewNumericDate(a.IssuedAt.Add(ExpirationTime)),
		ID:        jti,
	}
	custom := customClaims{Schemas: Schemas, Tenant: a.Tenant}

	token, err := jwt.Signed(signer).Claims(registered).Claims(custom).Serialize()
	if err != nil {
		return "", mclerror.Wrap(mclerror.Fail, "signing self-issued assertion", err)
	}
	return token, nil
}
