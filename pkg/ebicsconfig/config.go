// Package ebicsconfig loads and validates the per-client EBICS
// configuration: bank endpoint, protocol version, user identity, key
// material, and the bank keys populated once HPB succeeds. The YAML
// loader — file read, ${VAR} expansion, defaults, then validation —
// keeps each step as a separate, independently testable function.
package ebicsconfig

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/sirosfoundation/go-ebics/pkg/order"
)

// FileConfig is the YAML-serializable shape of an EbicsConfig, keyed
// exactly like the fields callers put in a config file. Key material is
// referenced by file path here; Load turns the paths into an EbicsConfig
// with parsed keys.
type FileConfig struct {
	URL      string `yaml:"url"`
	Version  string `yaml:"version"`  // H004 or H005
	Revision int    `yaml:"revision"`
	HostID   string `yaml:"hostId"`
	PartnerID string `yaml:"partnerId"`
	UserID   string `yaml:"userId"`
	Product  string `yaml:"product"`
	TLSInsecure bool `yaml:"tlsInsecure"`

	Keys struct {
		SignKeyFile  string `yaml:"signKeyFile"`  // A005
		AuthKeyFile  string `yaml:"authKeyFile"`  // X002
		CryptKeyFile string `yaml:"cryptKeyFile"` // E002

		// IssuerCertFile is the bank's CA certificate, used to validate the
		// OCSP responder signature when HPB returns a bank certificate.
		// Optional: banks that deliver bare PubKeyValue elements have
		// nothing to check revocation against.
		IssuerCertFile string `yaml:"issuerCertFile"`
	} `yaml:"keys"`
}

// EbicsConfig is immutable per-client settings, with the exception of the
// Bank field, which is written once by a successful HPB and read
// thereafter: callers must go through SetBankKeys / BankKeys
// rather than mutating the struct directly, so the single write is
// synchronized.
type EbicsConfig struct {
	URL         string
	Version     string
	Revision    int
	HostID      string
	PartnerID   string
	UserID      string
	Product     string
	TLSInsecure bool

	SignKey  *KeyPair // A005
	AuthKey  *KeyPair // X002
	CryptKey *KeyPair // E002

	// IssuerCert is the bank's CA certificate, loaded from IssuerCertFile.
	// Nil unless the deployment configures one.
	IssuerCert *KeyPair

	bankMu sync.RWMutex
	bank   *order.BankKeys
}

// Load reads a YAML file, expands ${VAR}/$VAR environment references via
// os.ExpandEnv, applies defaults, validates, and loads the referenced key
// files.
func Load(path string) (*EbicsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ebicsconfig: reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var fc FileConfig
	if err := yaml.Unmarshal([]byte(expanded), &fc); err != nil {
		return nil, fmt.Errorf("ebicsconfig: parsing config file: %w", err)
	}
	fc.applyDefaults()
	if err := fc.validate(); err != nil {
		return nil, fmt.Errorf("ebicsconfig: validating config: %w", err)
	}

	cfg := &EbicsConfig{
		URL:         fc.URL,
		Version:     fc.Version,
		Revision:    fc.Revision,
		HostID:      fc.HostID,
		PartnerID:   fc.PartnerID,
		UserID:      fc.UserID,
		Product:     fc.Product,
		TLSInsecure: fc.TLSInsecure,
	}

	var err2 error
	if cfg.SignKey, err2 = LoadKeyPair(fc.Keys.SignKeyFile, "A005"); err2 != nil {
		return nil, fmt.Errorf("ebicsconfig: sign key: %w", err2)
	}
	if cfg.AuthKey, err2 = LoadKeyPair(fc.Keys.AuthKeyFile, "X002"); err2 != nil {
		return nil, fmt.Errorf("ebicsconfig: auth key: %w", err2)
	}
	if cfg.CryptKey, err2 = LoadKeyPair(fc.Keys.CryptKeyFile, "E002"); err2 != nil {
		return nil, fmt.Errorf("ebicsconfig: crypt key: %w", err2)
	}
	if cfg.IssuerCert, err2 = LoadKeyPair(fc.Keys.IssuerCertFile, ""); err2 != nil {
		return nil, fmt.Errorf("ebicsconfig: issuer certificate: %w", err2)
	}

	return cfg, nil
}

func (fc *FileConfig) applyDefaults() {
	if fc.Version == "" {
		fc.Version = "H004"
	}
	if fc.Revision == 0 {
		fc.Revision = 1
	}
}

func (fc *FileConfig) validate() error {
	if fc.URL == "" {
		return fmt.Errorf("url is required")
	}
	if fc.Version != "H004" && fc.Version != "H005" {
		return fmt.Errorf("version must be H004 or H005, got %q", fc.Version)
	}
	if fc.HostID == "" || fc.PartnerID == "" || fc.UserID == "" {
		return fmt.Errorf("hostId, partnerId, and userId are all required")
	}
	return nil
}

// BankKeys returns the bank keys populated by a successful HPB, or nil if
// HPB has not yet run.
func (c *EbicsConfig) BankKeys() *order.BankKeys {
	c.bankMu.RLock()
	defer c.bankMu.RUnlock()
	return c.bank
}

// SetBankKeys records the bank keys returned by HPB. Safe to call
// concurrently with BankKeys, though EbicsConfig is meant to be written
// once per bank relationship.
func (c *EbicsConfig) SetBankKeys(keys order.BankKeys) {
	c.bankMu.Lock()
	defer c.bankMu.Unlock()
	c.bank = &keys
}
