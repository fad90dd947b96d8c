// Package config loads the shared client/server TOML configuration.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/omochice/guessthesong/internal/session"
)

// Message names used on the wire. Their payloads come from the [messages]
// table so client and server agree without code changes.
const (
	ReceiverSignature   = "receiverSignature"
	SenderSignature     = "senderSignature"
	ManagerSignature    = "managerSignature"
	SongReceived        = "songReceived"
	TriggerPlayback     = "triggerPlayback"
	RestartServer       = "restartServer"
	RequestConfirmation = "requestConfirmation"
	RequestError        = "requestError"
)

// RequiredMessages lists the message names every config must define.
var RequiredMessages = []string{
	ReceiverSignature,
	SenderSignature,
	ManagerSignature,
	SongReceived,
	TriggerPlayback,
	RestartServer,
	RequestConfirmation,
	RequestError,
}

// Config is the resolved configuration.
type Config struct {
	Host     string
	Port     int
	Session  session.Config
	Messages Messages
}

// Messages maps symbolic message names to wire payloads.
type Messages map[string]string

// Get returns the payload for name.
func (m Messages) Get(name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", fmt.Errorf("message %q is not configured", name)
	}
	return v, nil
}

// MustGet returns the payload for name; it panics on a name that Validate
// would have rejected.
func (m Messages) MustGet(name string) string {
	v, err := m.Get(name)
	if err != nil {
		panic(err)
	}
	return v
}

type fileConfig struct {
	Server struct {
		Host string `toml:"host"`
		Port int    `toml:"port"`
	} `toml:"server"`
	Session struct {
		MaxReconnectAttempts int    `toml:"max_reconnect_attempts"`
		InitialBackoff       string `toml:"initial_backoff"`
		MaxBackoff           string `toml:"max_backoff"`
		HandshakeTimeout     string `toml:"handshake_timeout"`
		RegenerateID         bool   `toml:"regenerate_id"`
	} `toml:"session"`
	Messages map[string]string `toml:"messages"`
}

// Default returns the configuration used when a key is absent.
func Default() Config {
	return Config{
		Host:     "localhost",
		Port:     8765,
		Session:  session.DefaultConfig(),
		Messages: Messages{},
	}
}

// Load reads and validates the TOML file at path.
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, err := resolve(raw, meta)
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML from data.
func Parse(data string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed: %w", err)
	}
	return resolve(raw, meta)
}

func resolve(raw fileConfig, meta toml.MetaData) (Config, error) {
	cfg := Default()

	if meta.IsDefined("server", "host") {
		cfg.Host = strings.TrimSpace(raw.Server.Host)
	}
	if meta.IsDefined("server", "port") {
		cfg.Port = raw.Server.Port
	}
	if meta.IsDefined("session", "max_reconnect_attempts") {
		cfg.Session.MaxReconnectAttempts = raw.Session.MaxReconnectAttempts
	}
	if meta.IsDefined("session", "initial_backoff") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Session.InitialBackoff))
		if err != nil {
			return Config{}, fmt.Errorf("parse initial_backoff: %w", err)
		}
		cfg.Session.Backoff.InitialDelay = d
	}
	if meta.IsDefined("session", "max_backoff") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Session.MaxBackoff))
		if err != nil {
			return Config{}, fmt.Errorf("parse max_backoff: %w", err)
		}
		cfg.Session.Backoff.MaxDelay = d
	}
	if meta.IsDefined("session", "handshake_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Session.HandshakeTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse handshake_timeout: %w", err)
		}
		cfg.Session.HandshakeTimeout = d
	}
	if meta.IsDefined("session", "regenerate_id") {
		cfg.Session.RegenerateIDOnReconnect = raw.Session.RegenerateID
	}
	for k, v := range raw.Messages {
		cfg.Messages[k] = v
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that cfg is usable by both client and server.
func Validate(cfg Config) error {
	if cfg.Host == "" {
		return fmt.Errorf("server host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("server port %d out of range", cfg.Port)
	}
	if cfg.Session.MaxReconnectAttempts <= 0 {
		return fmt.Errorf("max_reconnect_attempts must be positive")
	}
	for _, name := range RequiredMessages {
		v, ok := cfg.Messages[name]
		if !ok || v == "" {
			return fmt.Errorf("message %q is required", name)
		}
	}
	seen := make(map[string]string, len(cfg.Messages))
	for _, name := range []string{ReceiverSignature, SenderSignature, ManagerSignature} {
		v := cfg.Messages[name]
		if other, dup := seen[v]; dup {
			return fmt.Errorf("messages %q and %q share the payload %q", other, name, v)
		}
		seen[v] = name
	}
	return nil
}

// ServerURL returns the websocket URL for the configured host and port.
func (c Config) ServerURL() string {
	return "ws://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ListenAddr returns the address the relay server binds.
func (c Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Port)
}
