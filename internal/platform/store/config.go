package store

import (
	"time"

	"hydroflow/internal/platform/config"
)

// Config aggregates backend configuration
type Config struct {
	AppName string
	PG      PGConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// ConnectRetries bounds the boot ping loop; <=0 means 6
	ConnectRetries int
	// PingTimeout bounds each ping; <=0 means 3s
	PingTimeout time.Duration
}

// FromConfig reads HYDRO_LEDGER_* settings
// The ledger is enabled only when HYDRO_LEDGER_DBURL is set
func FromConfig(app string, cfg config.Conf) Config {
	c := cfg.Prefix("HYDRO_LEDGER_")
	url := c.MayString("DBURL", "")
	return Config{
		AppName: app,
		PG: PGConfig{
			Enabled:        url != "",
			URL:            url,
			MaxConns:       int32(c.MayInt("MAX_CONNS", 4)),
			LogSQL:         c.MayBool("LOG_SQL", false),
			SlowQueryMs:    c.MayInt("SLOW_MS", 500),
			ConnectRetries: c.MayInt("CONNECT_RETRIES", 6),
			PingTimeout:    c.MayDuration("PING_TIMEOUT", 3*time.Second),
		},
	}
}
