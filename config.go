package mysqlnative

// Config holds everything needed to open a Connection: the parsed
// connection-string fields from spec.md §6, plus the pluggable collaborators
// (Dialer, requested Capability mask) spec.md §9 keeps out of global state.
type Config struct {
	Host     string
	Port     int // defaults to 3306 when zero
	User     string
	Password string
	Database string

	// Dialer opens the underlying transport. Defaults to DialTCP.
	Dialer Dialer

	// Capabilities is the client's requested capability mask, ANDed with
	// the server's own mask during handshake (spec.md §4.C). Zero means
	// use the driver's default request set.
	Capabilities Capability
}

const defaultPort = 3306

func (c *Config) port() int {
	if c.Port == 0 {
		return defaultPort
	}
	return c.Port
}

func (c *Config) dialer() Dialer {
	if c.Dialer != nil {
		return c.Dialer
	}
	return DialTCP
}

func (c *Config) capabilities() Capability {
	if c.Capabilities != 0 {
		return c.Capabilities
	}
	return baseRequestedCapabilities
}
