package model

// WiFiCredentials is the network join secret read once at boot from the
// credentials file and held unchanged for the lifetime of the process.
type WiFiCredentials struct {
	SSID     string
	Password string
}

// IsOpen reports whether the network is joined without a passphrase.
func (c WiFiCredentials) IsOpen() bool {
	return c.Password == ""
}
