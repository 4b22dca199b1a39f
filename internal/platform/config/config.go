// Package config builds process configuration from the environment so main
// stays lean. Role wallets and ledger clients are constructed once from this
// config at process start and passed by reference; nothing here is a global.
package config

import (
	"os"
	"strconv"
	"time"
)

// Collaborators holds the external extraction and scoring endpoints.
type Collaborators struct {
	VisionURL      string
	VisionAPIKey   string
	VisionModel    string
	FieldsURL      string
	CredibilityURL string
	Timeout        time.Duration
}

// Ledger holds the chain-facing configuration.
type Ledger struct {
	LCDURL          string
	ChainID         string
	Bech32HRP       string
	ContractAddress string
	CodeHash        string
	// OwnerKeyHex and AuditorKeyHex feed the local dev wallets. Production
	// deployments substitute external signers and leave these empty.
	OwnerKeyHex   string
	AuditorKeyHex string
	// InMemory switches the compute client to the in-process ledger, for
	// development without a reachable chain.
	InMemory bool
}

// Audit holds the audit workflow policy.
type Audit struct {
	// AllowRedisposition permits overwriting a prior disposition. The
	// observed product behavior allows it; set false to make dispositions
	// terminal.
	AllowRedisposition bool
}

// Config is the root server configuration.
type Config struct {
	Addr          string
	JWTSigningKey string
	RedisURL      string
	KafkaBrokers  string
	AuditTopic    string
	PostgresDSN   string
	Collaborators Collaborators
	Ledger        Ledger
	Audit         Audit
}

// FromEnv reads configuration with development defaults matching the
// testnet the product has always pointed at.
func FromEnv() Config {
	return Config{
		Addr:          envOr("SEALEDGER_ADDR", ":8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  os.Getenv("KAFKA_BROKERS"),
		AuditTopic:    envOr("AUDIT_TOPIC", "sealedger.audit.events"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		Collaborators: Collaborators{
			VisionURL:      envOr("VISION_URL", "https://api.together.xyz"),
			VisionAPIKey:   os.Getenv("VISION_API_KEY"),
			VisionModel:    envOr("VISION_MODEL", "meta-llama/Llama-3.2-90B-Vision-Instruct-Turbo"),
			FieldsURL:      envOr("API_INVOICE_URL", "http://localhost:5000/api/invoice"),
			CredibilityURL: envOr("API_CREDIBILITY_URL", "http://localhost:5000/api/credibility"),
			Timeout:        envDurationOr("COLLABORATOR_TIMEOUT", 60*time.Second),
		},
		Ledger: Ledger{
			LCDURL:          envOr("LCD_URL", "https://pulsar.lcd.secretnodes.com"),
			ChainID:         envOr("CHAIN_ID", "pulsar-3"),
			Bech32HRP:       envOr("BECH32_HRP", "secret"),
			ContractAddress: os.Getenv("CONTRACT_ADDRESS"),
			CodeHash:        os.Getenv("CONTRACT_CODE_HASH"),
			OwnerKeyHex:     os.Getenv("OWNER_KEY_HEX"),
			AuditorKeyHex:   os.Getenv("AUDITOR_KEY_HEX"),
			InMemory:        os.Getenv("LEDGER_IN_MEMORY") == "true",
		},
		Audit: Audit{
			AllowRedisposition: envBoolOr("AUDIT_ALLOW_REDISPOSITION", true),
		},
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDurationOr(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
