package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Role selects which side of the exchange this process plays.
const (
	RoleClient = "client"
	RoleServer = "server"
)

// Config holds all process-lifetime settings. Everything is fixed at start;
// nothing here is reconfigurable at runtime.
type Config struct {
	Role string `yaml:"role"` // "client" or "server"

	// Link layer (wireless association) settings
	NetworkName string `yaml:"networkName"` // network to associate with
	NetworkKey  string `yaml:"networkKey"`  // association credentials
	Interface   string `yaml:"interface"`   // optional local interface name filter

	// Transport settings
	PeerAddress string `yaml:"peerAddress"` // client: server address to dial
	PeerPort    int    `yaml:"peerPort"`    // client: server port to dial
	ListenPort  int    `yaml:"listenPort"`  // server: port to listen on

	// Timing constants, all in milliseconds
	LinkRetryDelayMs      int `yaml:"linkRetryDelayMs"`      // min wait between association attempts
	TransportRetryDelayMs int `yaml:"transportRetryDelayMs"` // min wait between transport sessions
	ReadTimeoutMs         int `yaml:"readTimeoutMs"`         // max wait for an inbound byte during an exchange
	HeartbeatPeriodMs     int `yaml:"heartbeatPeriodMs"`     // interval between heartbeat lines
	SilenceTimeoutMs      int `yaml:"silenceTimeoutMs"`      // server only: mute heartbeat after this much transport silence, 0 disables
	DialTimeoutMs         int `yaml:"dialTimeoutMs"`         // upper bound on a single client connect call
	TickIntervalMs        int `yaml:"tickIntervalMs"`        // host loop polling interval

	// Retry backoff shaping. Multiplier 1.0 keeps the delays fixed; larger
	// values grow the delay per consecutive failure up to MaxRetryDelayMs.
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
	MaxRetryDelayMs   int     `yaml:"maxRetryDelayMs"`

	// LinkResetEvery routes the Report state back to a full link
	// re-association every N report cycles. 0 disables the policy.
	LinkResetEvery int `yaml:"linkResetEvery"`

	// InitialSequence seeds the client's outgoing message counter.
	InitialSequence uint32 `yaml:"initialSequence"`

	// Ring pool settings for the inbound line buffers
	PayloadPoolSize int  `yaml:"payloadPoolSize"`
	PoolDebug       bool `yaml:"poolDebug"`
}

// DefaultConfig returns a configuration suitable for a local test pair.
func DefaultConfig() *Config {
	return &Config{
		Role:                  RoleClient,
		PeerAddress:           "127.0.0.1",
		PeerPort:              7080,
		ListenPort:            7080,
		LinkRetryDelayMs:      5000,
		TransportRetryDelayMs: 2000,
		ReadTimeoutMs:         3000,
		HeartbeatPeriodMs:     10000,
		SilenceTimeoutMs:      60000,
		DialTimeoutMs:         5000,
		TickIntervalMs:        10,
		BackoffMultiplier:     1.0,
		MaxRetryDelayMs:       60000,
		LinkResetEvery:        0,
		InitialSequence:       1230000,
		PayloadPoolSize:       16,
	}
}

// ReadConfig loads a YAML configuration file on top of the defaults.
func ReadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the state machine cannot run with.
func (c *Config) Validate() error {
	if c.Role != RoleClient && c.Role != RoleServer {
		return fmt.Errorf("invalid role %q, must be %q or %q", c.Role, RoleClient, RoleServer)
	}
	if c.Role == RoleClient && (c.PeerAddress == "" || c.PeerPort <= 0) {
		return fmt.Errorf("client role requires peerAddress and peerPort")
	}
	if c.Role == RoleServer && c.ListenPort <= 0 {
		return fmt.Errorf("server role requires listenPort")
	}
	if c.LinkRetryDelayMs <= 0 || c.TransportRetryDelayMs <= 0 ||
		c.ReadTimeoutMs <= 0 || c.HeartbeatPeriodMs <= 0 {
		return fmt.Errorf("retry delays, read timeout and heartbeat period must all be positive")
	}
	if c.BackoffMultiplier < 1.0 {
		return fmt.Errorf("backoffMultiplier must be >= 1.0, got %g", c.BackoffMultiplier)
	}
	if c.PayloadPoolSize <= 0 {
		return fmt.Errorf("payloadPoolSize must be positive")
	}
	return nil
}

// Duration accessors. The YAML surface stays in integer milliseconds; the
// core works in time.Duration.

func (c *Config) LinkRetryDelay() time.Duration { return msToDuration(c.LinkRetryDelayMs) }

func (c *Config) TransportRetryDelay() time.Duration { return msToDuration(c.TransportRetryDelayMs) }

func (c *Config) ReadTimeout() time.Duration { return msToDuration(c.ReadTimeoutMs) }

func (c *Config) HeartbeatPeriod() time.Duration { return msToDuration(c.HeartbeatPeriodMs) }

func (c *Config) SilenceTimeout() time.Duration { return msToDuration(c.SilenceTimeoutMs) }

func (c *Config) DialTimeout() time.Duration { return msToDuration(c.DialTimeoutMs) }

func (c *Config) TickInterval() time.Duration { return msToDuration(c.TickIntervalMs) }

func (c *Config) MaxRetryDelay() time.Duration { return msToDuration(c.MaxRetryDelayMs) }

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
