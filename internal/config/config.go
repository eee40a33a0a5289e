package config

import "time"

// Config aggregates configuration for the service.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Suggest SuggestConfig `mapstructure:"suggest"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds the client-facing HTTP/WebSocket listener settings
type ServerConfig struct {
	// Addr is the listen address for the API and websocket endpoint
	Addr string `mapstructure:"addr"`
	// AllowedOrigins restricts websocket upgrades; empty allows any origin
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// SendBuffer is the per-channel outbound event buffer
	SendBuffer int `mapstructure:"send_buffer"`
}

// DefaultServerConfig returns default configuration for the client listener
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:       DefaultHTTPAddr,
		SendBuffer: DefaultSendBuffer,
	}
}

// AdminConfig holds settings for the operational surfaces
type AdminConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	GRPCAddr string `mapstructure:"grpc_addr"`
	MCPAddr  string `mapstructure:"mcp_addr"`
}

// DefaultAdminConfig returns default configuration for the admin surfaces
func DefaultAdminConfig() AdminConfig {
	return AdminConfig{
		Enabled:  true,
		GRPCAddr: DefaultAdminGRPCAddr,
		MCPAddr:  DefaultAdminMCPAddr,
	}
}

// SuggestConfig holds configuration for the suggestion client
type SuggestConfig struct {
	// APIKey is the external service credential
	APIKey string `mapstructure:"api_key"`
	// Model is the external model name
	Model string `mapstructure:"model"`
	// MaxRetries is the retry budget shared by timeouts and transient errors
	MaxRetries int `mapstructure:"max_retries"`
	// RetryDelay is the fixed delay between attempts
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	// RequestTimeout bounds each attempt
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// MaxInputLength is the largest accepted payload
	MaxInputLength int `mapstructure:"max_input_length"`
}

// DefaultSuggestConfig returns default configuration for the suggestion client
func DefaultSuggestConfig() SuggestConfig {
	return SuggestConfig{
		Model:          DefaultModel,
		MaxRetries:     DefaultMaxRetries,
		RetryDelay:     DefaultRetryDelay,
		RequestTimeout: DefaultRequestTimeout,
		MaxInputLength: DefaultMaxInputLength,
	}
}

// QueueConfig holds configuration for the admission queue and dispatch loop
type QueueConfig struct {
	// SecondsPerItem is the fixed wait estimate per queue position
	SecondsPerItem int `mapstructure:"seconds_per_item"`
	// RedispatchDelay is the pause before draining the next item
	RedispatchDelay time.Duration `mapstructure:"redispatch_delay"`
}

// DefaultQueueConfig returns default configuration for the queue
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		SecondsPerItem:  DefaultSecondsPerItem,
		RedispatchDelay: DefaultRedispatchDelay,
	}
}

// SessionConfig holds configuration for the session store
type SessionConfig struct {
	UsersFile   string        `mapstructure:"users_file"`
	MaxInactive time.Duration `mapstructure:"max_inactive"`
}

// DefaultSessionConfig returns default configuration for sessions
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		UsersFile:   DefaultUsersFile,
		MaxInactive: DefaultSessionMaxInactive,
	}
}

// LogConfig holds logging options
type LogConfig struct {
	Debug bool   `mapstructure:"debug"`
	File  string `mapstructure:"file"`
	OTel  bool   `mapstructure:"otel"`
}

// Default returns a Config populated with every default
func Default() *Config {
	return &Config{
		Server:  DefaultServerConfig(),
		Admin:   DefaultAdminConfig(),
		Suggest: DefaultSuggestConfig(),
		Queue:   DefaultQueueConfig(),
		Session: DefaultSessionConfig(),
	}
}
