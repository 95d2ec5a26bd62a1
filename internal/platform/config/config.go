// Package config loads process configuration from an optional YAML file,
// then environment overrides, then defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"launder/internal/game"
)

// Config is shared by every binary; each reads the sections it needs.
type Config struct {
	Game      GameConfig      `yaml:"game"`
	Server    Server          `yaml:"server"`
	Agent     AgentConfig     `yaml:"agent"`
	Payments  PaymentsConfig  `yaml:"payments"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Redis     RedisConfig     `yaml:"redis"`
	Oracle    OracleConfig    `yaml:"oracle"`
	Audit     AuditConfig     `yaml:"audit"`
	Log       LogConfig       `yaml:"log"`
	Sequencer SequencerConfig `yaml:"sequencer"`
}

// GameConfig holds the market conditions of a run.
type GameConfig struct {
	Days              int           `yaml:"days"`
	SyndicateCount    int           `yaml:"syndicate_count"`
	StartingDirtyCash int64         `yaml:"starting_dirty_cash"`
	Threshold         int64         `yaml:"threshold"`
	LaundromatURL     string        `yaml:"laundromat_url"`
	SyndicateHost     string        `yaml:"syndicate_host"`
	SyndicateBasePort int           `yaml:"syndicate_base_port"`
	// LaundromatTimeout bounds each HTTP exchange a syndicate has with the
	// laundromat. A paid call is two exchanges.
	LaundromatTimeout time.Duration `yaml:"laundromat_timeout"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AgentConfig describes the agent exposed by this process.
type AgentConfig struct {
	Name        string `yaml:"name"`
	BossName    string `yaml:"boss_name"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
}

// PaymentsConfig configures paid entrypoints and the paying client.
type PaymentsConfig struct {
	FacilitatorURL    string        `yaml:"facilitator_url"`
	ReceivableAddress string        `yaml:"receivable_address"`
	Network           string        `yaml:"network"`
	Secret            string        `yaml:"secret"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
}

// LedgerConfig selects the ledger backend (server) and locates it (clients).
type LedgerConfig struct {
	URL            string        `yaml:"url"`
	Backend        string        `yaml:"backend"` // memory, postgres, sqlite
	DSN            string        `yaml:"dsn"`
	InitialSupply  int64         `yaml:"initial_supply"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AwaitRetries   int           `yaml:"await_retries"`
	AwaitDelay     time.Duration `yaml:"await_delay"`
}

// RedisConfig configures the optional shared round-total store.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	KeyPrefix    string        `yaml:"key_prefix"`
}

// OracleConfig configures decision and narration providers.
type OracleConfig struct {
	Mode        string        `yaml:"mode"` // llm, random
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	MaxAttempts int           `yaml:"max_attempts"`
	Timeout     time.Duration `yaml:"timeout"`
	Seed        uint64        `yaml:"seed"`
	Narrate     bool          `yaml:"narrate"`
}

// AuditConfig enables the Kafka audit stream.
type AuditConfig struct {
	KafkaBrokers []string `yaml:"kafka_brokers"`
	Topic        string   `yaml:"topic"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Journal bool   `yaml:"journal"`
}

// SequencerConfig configures the orchestrator.
type SequencerConfig struct {
	LogPath          string        `yaml:"log_path"`
	HealthInterval   string        `yaml:"health_interval"`
	HealthDeadline   time.Duration `yaml:"health_deadline"`
	BalanceSettle    time.Duration `yaml:"balance_settle"`
	RemoteTimeout    time.Duration `yaml:"remote_timeout"`
	// TurnTimeout bounds one launder call to a syndicate. It must exceed
	// TurnBudget so a turn that reached the laundromat is never abandoned.
	TurnTimeout      time.Duration `yaml:"turn_timeout"`
	SkipHealthChecks bool          `yaml:"skip_health_checks"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("SERVER_ADDR", &c.Server.Addr)
	setString("AGENT_NAME", &c.Agent.Name)
	setString("AGENT_BOSS_NAME", &c.Agent.BossName)
	setString("AGENT_DESCRIPTION", &c.Agent.Description)
	setString("AGENT_VERSION", &c.Agent.Version)
	setString("PAYMENTS_FACILITATOR_URL", &c.Payments.FacilitatorURL)
	setString("PAYMENTS_RECEIVABLE_ADDRESS", &c.Payments.ReceivableAddress)
	setString("PAYMENTS_NETWORK", &c.Payments.Network)
	setString("PAYMENTS_SECRET", &c.Payments.Secret)
	setString("LEDGER_URL", &c.Ledger.URL)
	setString("LEDGER_BACKEND", &c.Ledger.Backend)
	setString("LEDGER_DSN", &c.Ledger.DSN)
	setString("REDIS_URL", &c.Redis.URL)
	setString("LAUNDROMAT_URL", &c.Game.LaundromatURL)
	setString("ORACLE_MODE", &c.Oracle.Mode)
	setString("ORACLE_BASE_URL", &c.Oracle.BaseURL)
	setString("ORACLE_API_KEY", &c.Oracle.APIKey)
	setString("ORACLE_MODEL", &c.Oracle.Model)
	setString("AUDIT_KAFKA_TOPIC", &c.Audit.Topic)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FILE", &c.Log.File)
	setString("ACTIVITY_LOG_PATH", &c.Sequencer.LogPath)

	if v := os.Getenv("AUDIT_KAFKA_BROKERS"); v != "" {
		c.Audit.KafkaBrokers = splitList(v)
	}
	if v := os.Getenv("LOG_JOURNAL"); v != "" {
		c.Log.Journal = v == "true"
	}
	if v := os.Getenv("ORACLE_NARRATE"); v != "" {
		c.Oracle.Narrate = v == "true"
	}
	if v := os.Getenv("LAUNDER_THRESHOLD"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse LAUNDER_THRESHOLD: %w", err)
		}
		c.Game.Threshold = n
	}
	if v := os.Getenv("DAYS_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse DAYS_COUNT: %w", err)
		}
		c.Game.Days = n
	}
	if v := os.Getenv("SYNDICATE_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse SYNDICATE_COUNT: %w", err)
		}
		c.Game.SyndicateCount = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Game.Days == 0 {
		c.Game.Days = game.DefaultDays
	}
	if c.Game.SyndicateCount == 0 {
		c.Game.SyndicateCount = game.DefaultSyndicateCount
	}
	if c.Game.StartingDirtyCash == 0 {
		c.Game.StartingDirtyCash = game.DefaultStartingDirtyCash
	}
	if c.Game.Threshold == 0 {
		c.Game.Threshold = game.DefaultThreshold
	}
	if c.Game.LaundromatURL == "" {
		c.Game.LaundromatURL = "http://localhost:3000"
	}
	if c.Game.SyndicateHost == "" {
		c.Game.SyndicateHost = "localhost"
	}
	if c.Game.SyndicateBasePort == 0 {
		c.Game.SyndicateBasePort = game.DefaultSyndicateBasePort
	}
	if c.Game.LaundromatTimeout == 0 {
		c.Game.LaundromatTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Agent.Version == "" {
		c.Agent.Version = "0.1.0"
	}
	if c.Payments.Network == "" {
		c.Payments.Network = "base-sepolia"
	}
	if c.Payments.ReceivableAddress == "" {
		c.Payments.ReceivableAddress = "LaundromatReceivable"
	}
	if c.Payments.FacilitatorURL == "" {
		c.Payments.FacilitatorURL = "http://localhost:3200"
	}
	if c.Payments.TokenTTL == 0 {
		c.Payments.TokenTTL = time.Minute
	}
	if c.Ledger.URL == "" {
		c.Ledger.URL = "http://localhost:3200"
	}
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = "memory"
	}
	if c.Ledger.InitialSupply == 0 {
		c.Ledger.InitialSupply = 10_000_000
	}
	if c.Ledger.RequestTimeout == 0 {
		c.Ledger.RequestTimeout = 5 * time.Second
	}
	if c.Ledger.AwaitRetries == 0 {
		c.Ledger.AwaitRetries = 5
	}
	if c.Ledger.AwaitDelay == 0 {
		c.Ledger.AwaitDelay = time.Second
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "launder"
	}
	if c.Oracle.Mode == "" {
		c.Oracle.Mode = "random"
	}
	if c.Oracle.BaseURL == "" {
		c.Oracle.BaseURL = "https://api.openai.com/v1"
	}
	if c.Oracle.Model == "" {
		c.Oracle.Model = "gpt-4o-mini"
	}
	if c.Oracle.MaxAttempts == 0 {
		c.Oracle.MaxAttempts = 3
	}
	if c.Oracle.Timeout == 0 {
		c.Oracle.Timeout = 30 * time.Second
	}
	if c.Audit.Topic == "" {
		c.Audit.Topic = "launder.audit"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Sequencer.LogPath == "" {
		c.Sequencer.LogPath = "data/activity_log.json"
	}
	if c.Sequencer.HealthInterval == "" {
		c.Sequencer.HealthInterval = "@every 3s"
	}
	if c.Sequencer.HealthDeadline == 0 {
		c.Sequencer.HealthDeadline = 2 * time.Minute
	}
	if c.Sequencer.BalanceSettle == 0 {
		c.Sequencer.BalanceSettle = time.Second
	}
	if c.Sequencer.RemoteTimeout == 0 {
		c.Sequencer.RemoteTimeout = 2 * time.Minute
	}
	// Depends on the oracle, ledger and laundromat settings above.
	if c.Sequencer.TurnTimeout == 0 {
		c.Sequencer.TurnTimeout = c.TurnBudget() + turnSlack
	}
}

// turnSlack covers a syndicate's own processing on top of its remote calls.
const turnSlack = 30 * time.Second

// TurnBudget is the longest a syndicate can spend inside one launder call:
// every oracle attempt, the unpaid and the paid laundromat exchange, the
// dirty balance read and the full clean balance polling.
func (c *Config) TurnBudget() time.Duration {
	var oracle time.Duration
	if c.Oracle.Mode == "llm" {
		oracle = time.Duration(c.Oracle.MaxAttempts) * c.Oracle.Timeout
	}
	laundromat := 2 * c.Game.LaundromatTimeout
	reads := time.Duration(c.Ledger.AwaitRetries+2) * c.Ledger.RequestTimeout
	polling := time.Duration(c.Ledger.AwaitRetries) * c.Ledger.AwaitDelay
	return oracle + laundromat + reads + polling
}

// Validate rejects configurations no binary can run with.
func (c *Config) Validate() error {
	if c.Game.Days <= 0 {
		return fmt.Errorf("game.days must be positive")
	}
	if c.Game.SyndicateCount <= 0 {
		return fmt.Errorf("game.syndicate_count must be positive")
	}
	if c.Game.Threshold <= 0 {
		return fmt.Errorf("game.threshold must be positive")
	}
	if c.Game.StartingDirtyCash < 0 {
		return fmt.Errorf("game.starting_dirty_cash must not be negative")
	}
	switch c.Ledger.Backend {
	case "memory", "postgres", "sqlite":
	default:
		return fmt.Errorf("ledger.backend must be one of memory, postgres, sqlite")
	}
	if c.Ledger.Backend != "memory" && c.Ledger.DSN == "" {
		return fmt.Errorf("ledger.dsn is required for the %s backend", c.Ledger.Backend)
	}
	switch c.Oracle.Mode {
	case "llm":
		if c.Oracle.APIKey == "" {
			return fmt.Errorf("oracle.api_key is required in llm mode")
		}
	case "random":
	default:
		return fmt.Errorf("oracle.mode must be llm or random")
	}
	if c.Oracle.MaxAttempts <= 0 {
		return fmt.Errorf("oracle.max_attempts must be positive")
	}
	if c.Game.LaundromatTimeout <= 0 || c.Oracle.Timeout <= 0 || c.Ledger.RequestTimeout <= 0 {
		return fmt.Errorf("game.laundromat_timeout, oracle.timeout and ledger.request_timeout must be positive")
	}
	if budget := c.TurnBudget(); c.Sequencer.TurnTimeout <= budget {
		return fmt.Errorf("sequencer.turn_timeout (%s) must exceed the longest syndicate turn (%s)", c.Sequencer.TurnTimeout, budget)
	}
	return nil
}

// SyndicateAddr returns the base URL of the i-th syndicate, starting at 1.
func (g GameConfig) SyndicateAddr(i int) string {
	return fmt.Sprintf("http://%s:%d", g.SyndicateHost, g.SyndicateBasePort+i-1)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
