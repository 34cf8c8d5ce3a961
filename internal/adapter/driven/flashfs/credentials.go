// Package flashfs reads device configuration from the data filesystem that
// stands in for on-board flash storage.
package flashfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/ericfisherdev/atomicserver/internal/domain/model"
	"github.com/ericfisherdev/atomicserver/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialSource = (*CredentialSource)(nil)

// CredentialSource loads WiFi credentials from a JSON file of the form
// {"ssid": "...", "password": "..."}. Other keys are ignored.
type CredentialSource struct {
	fsys fs.FS
	name string
}

// NewCredentialSource creates a CredentialSource reading name from fsys.
// A leading slash in name is accepted and stripped.
func NewCredentialSource(fsys fs.FS, name string) *CredentialSource {
	return &CredentialSource{fsys: fsys, name: strings.TrimPrefix(name, "/")}
}

// Name returns the path of the credentials file inside the filesystem.
func (s *CredentialSource) Name() string {
	return s.name
}

// Load reads and validates the credentials file. Both keys must be present;
// an empty password denotes an open network, an empty ssid is rejected.
func (s *CredentialSource) Load(ctx context.Context) (model.WiFiCredentials, error) {
	if err := ctx.Err(); err != nil {
		return model.WiFiCredentials{}, err
	}

	data, err := fs.ReadFile(s.fsys, s.name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.WiFiCredentials{}, fmt.Errorf("%w: /%s", driven.ErrCredentialsNotFound, s.name)
		}
		return model.WiFiCredentials{}, fmt.Errorf("read /%s: %w", s.name, err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.WiFiCredentials{}, fmt.Errorf("%w: /%s: %w", driven.ErrCredentialsMalformed, s.name, err)
	}

	rawSSID, hasSSID := doc["ssid"]
	rawPassword, hasPassword := doc["password"]
	if !hasSSID || !hasPassword {
		return model.WiFiCredentials{}, fmt.Errorf("%w: /%s", driven.ErrCredentialsIncomplete, s.name)
	}

	var creds model.WiFiCredentials
	if err := json.Unmarshal(rawSSID, &creds.SSID); err != nil {
		return model.WiFiCredentials{}, fmt.Errorf("%w: /%s: ssid: %w", driven.ErrCredentialsMalformed, s.name, err)
	}
	if err := json.Unmarshal(rawPassword, &creds.Password); err != nil {
		return model.WiFiCredentials{}, fmt.Errorf("%w: /%s: password: %w", driven.ErrCredentialsMalformed, s.name, err)
	}

	if creds.SSID == "" {
		return model.WiFiCredentials{}, fmt.Errorf("%w: /%s: ssid is empty", driven.ErrCredentialsIncomplete, s.name)
	}

	return creds, nil
}
