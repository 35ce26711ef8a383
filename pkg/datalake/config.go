package datalake

import (
	"os"

	"github.com/wisbric/mindconnect-agent/internal/mclerror"
	"github.com/wisbric/mindconnect-agent/pkg/agent"
)

// Config is the Data-Lake Configuration: a required Core handle plus an
// optional certificate for the object store's host, which may differ from
// the agent's own gateway host.
type Config struct {
	Core *agent.Core

	// SubtenantID, when set, namespaces generated paths under a subtenant.
	SubtenantID string

	CertificatePEM  string
	CertificateFile string
}

// certificate resolves the configured object-store certificate: a literal
// PEM string, a path to read one from, or empty (defer to the upload
// client's default trust store).
func (c *Config) certificate() (string, error) {
	if c.CertificatePEM != "" {
		return c.CertificatePEM, nil
	}
	if c.CertificateFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.CertificateFile)
	if err != nil {
		return "", mclerror.Wrap(mclerror.InvalidParameter, "reading data-lake certificate file", err)
	}
	return string(data), nil
}
