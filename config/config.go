package config

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

const (
	BackendSqlite = "sqlite"
	BackendRedis  = "redis"

	FailPolicyClosed = "closed"
	FailPolicyOpen   = "open"

	LogFormatJson = "json"
	LogFormatText = "text"
)

// Environment variables that override secrets from the config file.
const (
	EnvJwtSecret         = "SENTINEL_JWT_SECRET"
	EnvAdminPasswordHash = "SENTINEL_ADMIN_PASSWORD_HASH"
	EnvRedisPassword     = "SENTINEL_REDIS_PASSWORD"
)

// Provider holds the current configuration. Readers always get a complete
// *Config; Update swaps it atomically.
type Provider struct {
	value atomic.Pointer[Config]
}

// NewProvider panics if cfg is nil.
func NewProvider(cfg *Config) *Provider {
	if cfg == nil {
		panic("config: NewProvider called with nil config")
	}
	p := &Provider{}
	p.value.Store(cfg)
	return p
}

func (p *Provider) Get() *Config {
	return p.value.Load()
}

func (p *Provider) Update(cfg *Config) {
	p.value.Store(cfg)
}

type Config struct {
	// Source is the file the config was loaded from, empty for defaults.
	Source string `toml:"-"`

	Server    Server    `toml:"server"`
	Storage   Storage   `toml:"storage"`
	Jwt       Jwt       `toml:"jwt"`
	Admin     Admin     `toml:"admin"`
	BlockIp   BlockIp   `toml:"block_ip"`
	Visits    Visits    `toml:"visits"`
	Log       Log       `toml:"log"`
	Metrics   Metrics   `toml:"metrics"`
	Endpoints Endpoints `toml:"endpoints"`
}

type Server struct {
	Addr                    string   `toml:"addr"`
	ShutdownGracefulTimeout Duration `toml:"shutdown_graceful_timeout"`
	ReadTimeout             Duration `toml:"read_timeout"`
	ReadHeaderTimeout       Duration `toml:"read_header_timeout"`
	WriteTimeout            Duration `toml:"write_timeout"`
	IdleTimeout             Duration `toml:"idle_timeout"`

	// ClientIpProxyHeader names a header set by a trusted reverse proxy,
	// e.g. "X-Forwarded-For". Empty means RemoteAddr is the client.
	ClientIpProxyHeader string `toml:"client_ip_proxy_header"`
}

type Storage struct {
	Backend        string `toml:"backend"`
	SqlitePath     string `toml:"sqlite_path"`
	SqlitePoolSize int    `toml:"sqlite_pool_size"`
	RedisAddr      string `toml:"redis_addr"`
	RedisPassword  string `toml:"redis_password"`
	RedisDB        int    `toml:"redis_db"`
	RedisKeyPrefix string `toml:"redis_key_prefix"`
}

type Jwt struct {
	AuthSecret        string   `toml:"auth_secret"`
	AuthTokenDuration Duration `toml:"auth_token_duration"`
}

// Admin is the single operator credential. PasswordHash is a bcrypt hash;
// when empty password login is disabled.
type Admin struct {
	Username     string `toml:"username"`
	PasswordHash string `toml:"password_hash"`
}

type BlockIp struct {
	Activated       bool     `toml:"activated"`
	FailPolicy      string   `toml:"fail_policy"`
	ExemptPaths     []string `toml:"exempt_paths"`
	RefreshInterval Duration `toml:"refresh_interval"`

	// MaxStaleness bounds how old the in-memory blocklist may get before
	// lookups report the store as unavailable. Zero disables the bound.
	MaxStaleness Duration `toml:"max_staleness"`
}

type Visits struct {
	RecentLimit        int      `toml:"recent_limit"`
	UserAgentMaxLength int      `toml:"user_agent_max_length"`
	DedupWindow        Duration `toml:"dedup_window"`

	// FailureReportInterval is the minimum gap between two log lines about
	// failed visit writes.
	FailureReportInterval Duration `toml:"failure_report_interval"`
}

type Log struct {
	Format  string      `toml:"format"`
	Level   LogLevel    `toml:"level"`
	Request LogRequest  `toml:"request"`
	Batch   BatchLogger `toml:"batch"`
}

type LogRequest struct {
	Activated bool             `toml:"activated"`
	Limits    LogRequestLimits `toml:"limits"`
}

type LogRequestLimits struct {
	URILength       int `toml:"uri_length"`
	UserAgentLength int `toml:"user_agent_length"`
	RefererLength   int `toml:"referer_length"`
	RemoteIPLength  int `toml:"remote_ip_length"`
}

type BatchLogger struct {
	Activated     bool     `toml:"activated"`
	FlushSize     int      `toml:"flush_size"`
	ChanSize      int      `toml:"chan_size"`
	FlushInterval Duration `toml:"flush_interval"`
	Level         LogLevel `toml:"level"`
	DbPath        string   `toml:"db_path"`
}

type Metrics struct {
	Activated  bool     `toml:"activated"`
	Endpoint   string   `toml:"endpoint"`
	AllowedIPs []string `toml:"allowed_ips"`
}

// Endpoints are "METHOD /path" route patterns.
type Endpoints struct {
	Health           string `toml:"health"`
	LogVisit         string `toml:"log_visit"`
	ListVisits       string `toml:"list_visits"`
	ListBlockedIps   string `toml:"list_blocked_ips"`
	BlockIp          string `toml:"block_ip"`
	UnblockIp        string `toml:"unblock_ip"`
	AuthWithPassword string `toml:"auth_with_password"`
	ListEndpoints    string `toml:"list_endpoints"`
}

// Path returns the path part of an endpoint pattern.
func (e Endpoints) Path(endpoint string) string {
	if _, path, ok := strings.Cut(endpoint, " "); ok {
		return path
	}
	return endpoint
}

// All returns every configured pattern keyed by its config name.
func (e Endpoints) All() map[string]string {
	return map[string]string{
		"health":             e.Health,
		"log_visit":          e.LogVisit,
		"list_visits":        e.ListVisits,
		"list_blocked_ips":   e.ListBlockedIps,
		"block_ip":           e.BlockIp,
		"unblock_ip":         e.UnblockIp,
		"auth_with_password": e.AuthWithPassword,
		"list_endpoints":     e.ListEndpoints,
	}
}

// Duration wraps time.Duration so TOML files can use "15s" style values.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LogLevel accepts debug, info, warn and error.
type LogLevel struct {
	Level slog.Level
}

func (l *LogLevel) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "debug":
		l.Level = slog.LevelDebug
	case "info":
		l.Level = slog.LevelInfo
	case "warn", "warning":
		l.Level = slog.LevelWarn
	case "error":
		l.Level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q", string(text))
	}
	return nil
}

func (l LogLevel) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(l.Level.String())), nil
}
