package security

// StoredCredentials is the on-disk/host-storage shape of the credential
// load/save callback contract (§6: "Persisted state layout: none owned by
// the core... shapes are the plain fields listed under CredentialMaterial").
type StoredCredentials struct {
	ClientID                string
	Tenant                  string
	Profile                 Profile
	ClientSecret            string
	PublicKeyPEM            string
	PrivateKeyPEM           string
	RegistrationAccessToken string
	RegistrationURI         string
}

// CredentialStore is the host-callback pair the Agent Credential Processor
// calls at initialization (load) and after every successful onboard/rotate
// (save). Load/save MUST be paired — a processor configured with one and
// not the other is a configuration error (§3).
type CredentialStore interface {
	Load() (StoredCredentials, error)
	Save(StoredCredentials) error
}
