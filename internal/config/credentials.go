package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	ErrNoCredentials      = errors.New("no service account credentials configured")
	ErrInvalidCredentials = errors.New("invalid service account credentials")
)

// Credentials is the service account bundle, loaded once at startup.
// The key material stays opaque; only the identifying fields are read.
type Credentials struct {
	JSON        []byte
	ProjectID   string
	ClientEmail string
}

type serviceAccountFile struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// LoadCredentials reads the bundle from GCP_CREDENTIALS_JSON or GCP_CREDENTIALS_FILE.
// An explicit GCP_PROJECT_ID wins over the project in the bundle.
func (c *Config) LoadCredentials() (*Credentials, error) {
	var data []byte
	switch {
	case c.CredentialsJSON != "":
		data = []byte(c.CredentialsJSON)
	case c.CredentialsFile != "":
		raw, err := os.ReadFile(c.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		data = raw
	default:
		return nil, ErrNoCredentials
	}

	creds, err := ParseCredentials(data)
	if err != nil {
		return nil, err
	}
	if c.ProjectID != "" {
		creds.ProjectID = c.ProjectID
	}
	return creds, nil
}

// ParseCredentials validates a service account JSON document
func ParseCredentials(data []byte) (*Credentials, error) {
	var sa serviceAccountFile
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, fmt.Errorf("%w: client_email and private_key are required", ErrInvalidCredentials)
	}

	return &Credentials{
		JSON:        data,
		ProjectID:   sa.ProjectID,
		ClientEmail: sa.ClientEmail,
	}, nil
}
