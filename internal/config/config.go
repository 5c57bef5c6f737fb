package config

import "time"

// MarketConfig is the root configuration for a marketd instance.
type MarketConfig struct {
	Instance InstanceConfig   `yaml:"instance"`
	Server   ServerConfig     `yaml:"server"`
	Database DatabaseConfig   `yaml:"database"`
	Journal  JournalConfig    `yaml:"journal"`
	Stream   StreamConfig     `yaml:"stream"`
	Genesis  []GenesisAccount `yaml:"genesis"`
}

// InstanceConfig identifies this marketd.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig holds the Postgres connection for the event journal.
// Ledger state itself lives in-memory; the journal is the durable,
// indexer-facing record of what happened.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// JournalConfig holds event journal batching settings.
type JournalConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// StreamConfig holds WebSocket event stream settings.
type StreamConfig struct {
	ClientBufferSize int `yaml:"client_buffer_size"`
}

// GenesisAccount seeds one native-currency balance at startup.
type GenesisAccount struct {
	Principal string `yaml:"principal"`
	Balance   uint64 `yaml:"balance"`
}
