package netconf

import "context"

// DefaultPort is the IANA-assigned port for NETCONF over SSH.
const DefaultPort = 830

// Session is an established NETCONF session against a single device.
type Session interface {
	// GetConfig retrieves the running configuration. A non-empty filter is
	// sent as a subtree filter; an empty filter retrieves the full
	// configuration.
	GetConfig(ctx context.Context, filter string) (string, error)
	Close() error
}

// Provider opens NETCONF sessions to devices.
type Provider interface {
	Connect(ctx context.Context, host, username, password string) (Session, error)
}
