package module

import (
	"hydroflow/internal/platform/config"
	"hydroflow/internal/services/api/runs/service"
)

// FromConfig reads the queue options with HYDRO_API_ prefix
func FromConfig(cfg config.Conf) service.Config {
	p := cfg.Prefix("HYDRO_API_")
	return service.Config{
		QueueSize: p.MayInt("QUEUE_SIZE", 8),
		LogLines:  p.MayInt("RUN_LOG_LINES", 500),
		Keep:      p.MayInt("RUN_HISTORY", 100),
	}
}
