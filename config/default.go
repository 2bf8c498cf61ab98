package config

import (
	"log/slog"
	"time"

	"github.com/prankvz/sentinel/crypto"
)

// NewDefaultConfig creates a new Config with sensible defaults.
// The JWT secret is randomly generated, so tokens do not survive a restart
// unless a secret is configured.
func NewDefaultConfig() *Config {
	return &Config{
		Server: Server{
			Addr:                    ":8080",
			ShutdownGracefulTimeout: Duration{Duration: 15 * time.Second},
			ReadTimeout:             Duration{Duration: 2 * time.Second},
			ReadHeaderTimeout:       Duration{Duration: 2 * time.Second},
			WriteTimeout:            Duration{Duration: 3 * time.Second},
			IdleTimeout:             Duration{Duration: 1 * time.Minute},
			ClientIpProxyHeader:     "",
		},
		Storage: Storage{
			Backend:        BackendSqlite,
			SqlitePath:     "sentinel.db",
			SqlitePoolSize: 4,
			RedisAddr:      "127.0.0.1:6379",
			RedisDB:        0,
			RedisKeyPrefix: "sentinel:",
		},
		Jwt: Jwt{
			AuthSecret:        crypto.RandomString(32, crypto.AlphanumericAlphabet),
			AuthTokenDuration: Duration{Duration: 45 * time.Minute},
		},
		Admin: Admin{
			Username:     "admin",
			PasswordHash: "",
		},
		BlockIp: BlockIp{
			Activated:       true,
			FailPolicy:      FailPolicyClosed,
			ExemptPaths:     []string{"/api/health"},
			RefreshInterval: Duration{Duration: 30 * time.Second},
			MaxStaleness:    Duration{Duration: 0},
		},
		Visits: Visits{
			RecentLimit:           10,
			UserAgentMaxLength:    512,
			DedupWindow:           Duration{Duration: 0},
			FailureReportInterval: Duration{Duration: 10 * time.Second},
		},
		Log: Log{
			Format: LogFormatJson,
			Level:  LogLevel{Level: slog.LevelInfo},
			Request: LogRequest{
				Activated: true,
				Limits: LogRequestLimits{
					URILength:       512, // Minimum: 64
					UserAgentLength: 256, // Minimum: 32
					RefererLength:   512, // Minimum: 64
					RemoteIPLength:  64,  // Minimum: 15
				},
			},
			Batch: BatchLogger{
				Activated:     false,
				FlushSize:     100,
				ChanSize:      1000,
				FlushInterval: Duration{Duration: 5 * time.Second},
				Level:         LogLevel{Level: slog.LevelInfo},
				DbPath:        "sentinel_logs.db",
			},
		},
		Metrics: Metrics{
			Activated:  true,
			Endpoint:   "/metrics",
			AllowedIPs: []string{"127.0.0.1", "::1"}, // Only exact IPs allowed, no CIDR ranges
		},
		Endpoints: Endpoints{
			Health:           "GET /api/health",
			LogVisit:         "POST /api/log-visit",
			ListVisits:       "GET /api/visits",
			ListBlockedIps:   "GET /api/blocked-ips",
			BlockIp:          "POST /api/block-ip",
			UnblockIp:        "POST /api/unblock-ip",
			AuthWithPassword: "POST /api/auth-with-password",
			ListEndpoints:    "GET /api/list-endpoints",
		},
	}
}
