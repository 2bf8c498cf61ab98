package config

import (
	"fmt"
	"net"
	"net/netip"
	"strings"
)

const minJwtSecretLength = 32

func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := validateStorage(&cfg.Storage); err != nil {
		return fmt.Errorf("storage config validation failed: %w", err)
	}
	if err := validateJwt(&cfg.Jwt); err != nil {
		return fmt.Errorf("jwt config validation failed: %w", err)
	}
	if err := validateAdmin(&cfg.Admin); err != nil {
		return fmt.Errorf("admin config validation failed: %w", err)
	}
	if err := validateBlockIp(&cfg.BlockIp); err != nil {
		return fmt.Errorf("block_ip config validation failed: %w", err)
	}
	if err := validateVisits(&cfg.Visits); err != nil {
		return fmt.Errorf("visits config validation failed: %w", err)
	}
	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log config validation failed: %w", err)
	}
	if err := validateMetrics(&cfg.Metrics); err != nil {
		return fmt.Errorf("metrics config validation failed: %w", err)
	}
	if err := validateEndpoints(&cfg.Endpoints); err != nil {
		return fmt.Errorf("endpoints config validation failed: %w", err)
	}
	return nil
}

// validateServer checks the Server configuration section.
// It ensures the Addr field is not empty and contains a valid host:port or :port format.
//
// Allowed formats:
//   - "host:port" (e.g., "example.com:8080", "127.0.0.1:8080", "[::1]:8080")
//   - ":port"     (e.g., ":8080", listens on all interfaces)
//
// The port part is mandatory.
func validateServer(server *Server) error {
	if server.Addr == "" {
		return fmt.Errorf("server address (Addr) cannot be empty")
	}

	_, port, err := net.SplitHostPort(server.Addr)
	if err != nil {
		return fmt.Errorf("invalid server address format '%s': %w", server.Addr, err)
	}
	if port == "" {
		return fmt.Errorf("server address '%s' must include a port", server.Addr)
	}
	if _, err := net.LookupPort("tcp", port); err != nil {
		return fmt.Errorf("invalid port '%s' in server address '%s': %w", port, server.Addr, err)
	}

	if server.ShutdownGracefulTimeout.Duration <= 0 {
		return fmt.Errorf("shutdown graceful timeout must be positive")
	}
	if strings.ContainsAny(server.ClientIpProxyHeader, " :") {
		return fmt.Errorf("invalid client ip proxy header name '%s'", server.ClientIpProxyHeader)
	}
	return nil
}

func validateStorage(s *Storage) error {
	switch s.Backend {
	case BackendSqlite:
		if s.SqlitePath == "" {
			return fmt.Errorf("sqlite_path cannot be empty")
		}
		if s.SqlitePoolSize < 1 {
			return fmt.Errorf("sqlite_pool_size must be at least 1, got %d", s.SqlitePoolSize)
		}
	case BackendRedis:
		if s.RedisAddr == "" {
			return fmt.Errorf("redis_addr cannot be empty")
		}
		if s.RedisDB < 0 {
			return fmt.Errorf("redis_db cannot be negative")
		}
	default:
		return fmt.Errorf("unknown backend '%s', want '%s' or '%s'", s.Backend, BackendSqlite, BackendRedis)
	}
	return nil
}

func validateJwt(j *Jwt) error {
	if len(j.AuthSecret) < minJwtSecretLength {
		return fmt.Errorf("auth_secret must be at least %d bytes", minJwtSecretLength)
	}
	if j.AuthTokenDuration.Duration <= 0 {
		return fmt.Errorf("auth_token_duration must be positive")
	}
	return nil
}

func validateAdmin(a *Admin) error {
	if a.Username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if a.PasswordHash != "" && !strings.HasPrefix(a.PasswordHash, "$2") {
		return fmt.Errorf("password_hash must be a bcrypt hash")
	}
	return nil
}

func validateBlockIp(b *BlockIp) error {
	if b.FailPolicy != FailPolicyClosed && b.FailPolicy != FailPolicyOpen {
		return fmt.Errorf("unknown fail_policy '%s', want '%s' or '%s'", b.FailPolicy, FailPolicyClosed, FailPolicyOpen)
	}
	for _, p := range b.ExemptPaths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("exempt path '%s' must start with /", p)
		}
	}
	if b.RefreshInterval.Duration < 0 {
		return fmt.Errorf("refresh_interval cannot be negative")
	}
	if b.MaxStaleness.Duration < 0 {
		return fmt.Errorf("max_staleness cannot be negative")
	}
	if b.MaxStaleness.Duration > 0 && b.RefreshInterval.Duration == 0 {
		return fmt.Errorf("max_staleness (%s) needs a refresh_interval, nothing would refresh the blocklist", b.MaxStaleness)
	}
	if b.MaxStaleness.Duration > 0 && b.MaxStaleness.Duration <= b.RefreshInterval.Duration {
		return fmt.Errorf("max_staleness (%s) must exceed refresh_interval (%s)", b.MaxStaleness, b.RefreshInterval)
	}
	return nil
}

func validateVisits(v *Visits) error {
	if v.RecentLimit < 1 {
		return fmt.Errorf("recent_limit must be at least 1, got %d", v.RecentLimit)
	}
	if v.UserAgentMaxLength < 32 {
		return fmt.Errorf("user_agent_max_length must be at least 32, got %d", v.UserAgentMaxLength)
	}
	if v.DedupWindow.Duration < 0 {
		return fmt.Errorf("dedup_window cannot be negative")
	}
	return nil
}

func validateLog(l *Log) error {
	if l.Format != LogFormatJson && l.Format != LogFormatText {
		return fmt.Errorf("unknown format '%s', want '%s' or '%s'", l.Format, LogFormatJson, LogFormatText)
	}

	lim := l.Request.Limits
	if lim.URILength < 64 || lim.UserAgentLength < 32 || lim.RefererLength < 64 || lim.RemoteIPLength < 15 {
		return fmt.Errorf("request log limits below minimum (uri 64, user agent 32, referer 64, remote ip 15)")
	}

	if l.Batch.Activated {
		if l.Batch.DbPath == "" {
			return fmt.Errorf("batch db_path cannot be empty")
		}
		if l.Batch.FlushSize < 1 || l.Batch.ChanSize < 1 {
			return fmt.Errorf("batch flush_size and chan_size must be positive")
		}
		if l.Batch.FlushInterval.Duration <= 0 {
			return fmt.Errorf("batch flush_interval must be positive")
		}
	}
	return nil
}

func validateMetrics(m *Metrics) error {
	if !m.Activated {
		return nil
	}
	if !strings.HasPrefix(m.Endpoint, "/") {
		return fmt.Errorf("endpoint '%s' must start with /", m.Endpoint)
	}
	for _, ip := range m.AllowedIPs {
		if _, err := netip.ParseAddr(ip); err != nil {
			return fmt.Errorf("invalid allowed ip '%s': %w", ip, err)
		}
	}
	return nil
}

func validateEndpoints(e *Endpoints) error {
	for name, pattern := range e.All() {
		method, path, ok := strings.Cut(pattern, " ")
		if !ok || method == "" || !strings.HasPrefix(path, "/") {
			return fmt.Errorf("endpoint %s: invalid pattern '%s', want 'METHOD /path'", name, pattern)
		}
	}
	return nil
}
