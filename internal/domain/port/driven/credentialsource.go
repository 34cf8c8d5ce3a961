// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/atomicserver/internal/domain/model"
)

// Sentinel errors returned by CredentialSource implementations.
var (
	// ErrCredentialsNotFound indicates the credentials file does not exist.
	ErrCredentialsNotFound = errors.New("credentials file not found")

	// ErrCredentialsMalformed indicates the credentials file is not a JSON
	// object or a required field is not a string.
	ErrCredentialsMalformed = errors.New("credentials file malformed")

	// ErrCredentialsIncomplete indicates the ssid or password field is missing.
	ErrCredentialsIncomplete = errors.New("credentials file missing ssid/password")
)

// CredentialSource defines the driven port for loading the network join secret.
// Load returns one of the sentinel errors above (possibly wrapped) on failure.
type CredentialSource interface {
	Load(ctx context.Context) (model.WiFiCredentials, error)
}
