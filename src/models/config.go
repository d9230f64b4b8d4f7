package models

// MConfig Structure
type MConfig struct {
	Name     string         `yaml:"name"`
	Host     string         `yaml:"host"`
	Port     int            `yaml:"port"`
	LogLevel string         `yaml:"log_level"`
	Feed     MFeedConfig    `yaml:"feed"`
	Ledger   MLedgerConfig  `yaml:"ledger"`
	Storage  MStorageConfig `yaml:"storage"`
	Relay    MRelayConfig   `yaml:"relay"`
}

// MFeedConfig controls the upstream market-feed connection.
type MFeedConfig struct {
	Endpoint                 string `yaml:"endpoint"`
	ReconnectIntervalSeconds int    `yaml:"reconnect_interval_seconds"`
	MaxReconnectAttempts     int    `yaml:"max_reconnect_attempts"`
	LivenessIntervalSeconds  int    `yaml:"liveness_interval_seconds"`
	HandshakeTimeoutSeconds  int    `yaml:"handshake_timeout_seconds"`
}

// MLedgerConfig controls the ledger RPC fetch pipeline.
type MLedgerConfig struct {
	RPCEndpoint      string `yaml:"rpc_endpoint"`
	SignatureLimit   int    `yaml:"signature_limit"`
	ChunkSize        int    `yaml:"chunk_size"`
	ChunkDelayMs     int    `yaml:"chunk_delay_ms"`
	ChunkConcurrency int    `yaml:"chunk_concurrency"`
}

type MStorageConfig struct {
	Enabled            bool   `yaml:"enabled"`
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"`
}

// MRelayConfig controls the optional Kafka trade relay.
type MRelayConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}
