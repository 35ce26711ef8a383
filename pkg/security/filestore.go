package security

import (
	"os"

	"github.com/wisbric/mindconnect-agent/internal/jsonutil"
	"github.com/wisbric/mindconnect-agent/internal/mclerror"
)

// FileCredentialStore is one concrete CredentialStore implementation: a
// single JSON file under Path, written with 0600 permissions. The original
// C implementation ships an equivalent default file-backed load/save pair
// alongside its callback contract (mcl_core/include/mcl_core/mcl_file_util.h);
// this is the Go module's optional, pluggable counterpart, which
// cmd/agentctl uses when MINDCONNECT_CREDENTIAL_STORE is set.
type FileCredentialStore struct {
	Path string
}

// NewFileCredentialStore returns a FileCredentialStore rooted at path.
func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{Path: path}
}

// Load reads and parses the credential file. A missing file is reported as
// CredentialsNotLoaded so the processor falls through to the
// initial-access-token path instead of failing initialization outright.
func (s *FileCredentialStore) Load() (StoredCredentials, error) {
	buf, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return StoredCredentials{}, mclerror.New(mclerror.CredentialsNotLoaded, "credential file does not exist")
	}
	if err != nil {
		return StoredCredentials{}, mclerror.Wrap(mclerror.CredentialsNotLoaded, "reading credential file", err)
	}

	root, err := jsonutil.Parse(buf)
	if err != nil {
		return StoredCredentials{}, mclerror.Wrap(mclerror.CredentialsNotLoaded, "parsing credential file", err)
	}

	var out StoredCredentials
	out.ClientID = getString(root, "client_id")
	out.Tenant = getString(root, "tenant")
	out.Profile = Profile(getString(root, "security_profile"))
	out.ClientSecret = getString(root, "client_secret")
	out.PublicKeyPEM = getString(root, "public_key_pem")
	out.PrivateKeyPEM = getString(root, "private_key_pem")
	out.RegistrationAccessToken = getString(root, "registration_access_token")
	out.RegistrationURI = getString(root, "registration_uri")
	return out, nil
}

// Save serializes creds to the credential file, replacing it atomically via
// write-then-rename so a crash mid-write never leaves a truncated file.
func (s *FileCredentialStore) Save(creds StoredCredentials) error {
	root := jsonutil.Initialize(jsonutil.KindObject)
	setString(root, "client_id", creds.ClientID)
	setString(root, "tenant", creds.Tenant)
	setString(root, "security_profile", string(creds.Profile))
	setString(root, "client_secret", creds.ClientSecret)
	setString(root, "public_key_pem", creds.PublicKeyPEM)
	setString(root, "private_key_pem", creds.PrivateKeyPEM)
	setString(root, "registration_access_token", creds.RegistrationAccessToken)
	setString(root, "registration_uri", creds.RegistrationURI)

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, []byte(root.ToString()), 0o600); err != nil {
		return mclerror.Wrap(mclerror.CredentialsNotSaved, "writing credential file", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return mclerror.Wrap(mclerror.CredentialsNotSaved, "renaming credential file into place", err)
	}
	return nil
}

func getString(v *jsonutil.Value, name string) string {
	child, ok := v.GetObjectItem(name)
	if !ok {
		return ""
	}
	s, err := child.GetString()
	if err != nil {
		return ""
	}
	return s
}

func setString(v *jsonutil.Value, name, value string) {
	_ = v.AddString(name, value)
}
