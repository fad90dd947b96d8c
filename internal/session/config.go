package session

import "time"

// BackoffConfig defines retry backoff behavior between reconnect attempts.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines reconnection and handshake behavior of a Conn.
type Config struct {
	// HandshakeTimeout bounds one dial + handshake round trip; 0 disables.
	HandshakeTimeout time.Duration

	// MaxReconnectAttempts caps consecutive failed reconnects per operation.
	MaxReconnectAttempts int

	Backoff BackoffConfig

	// RegenerateIDOnReconnect draws a fresh connection id for every
	// reconnect instead of keeping the one from construction.
	RegenerateIDOnReconnect bool

	// OnReconnect is called after every reconnect attempt with its 1-based
	// number and the result; err is nil when the attempt succeeded.
	OnReconnect func(attempt int, err error)
}

// DefaultConfig returns the defaults used by the client binary.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout:     10 * time.Second,
		MaxReconnectAttempts: 5,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}
