package module

import (
	"time"

	"hydroflow/internal/platform/config"
	"hydroflow/internal/services/pipeline/guardrails"
)

// Options holds configuration options for the pipeline module
type Options struct {
	Budgets  guardrails.Budgets
	Progress bool

	// DEMURL overrides the OpenTopography endpoint (mirrors, tests)
	DEMURL  string
	DEMType string
}

// FromConfig reads the pipeline options with HYDRO_PIPELINE_ prefix
func FromConfig(cfg config.Conf) Options {
	p := cfg.Prefix("HYDRO_PIPELINE_")
	return Options{
		Budgets: guardrails.Budgets{
			Run:        p.MayDuration("RUN_TIMEOUT", 0),
			Download:   p.MayDuration("DOWNLOAD_TIMEOUT", 10*time.Minute),
			Preprocess: p.MayDuration("PREPROCESS_TIMEOUT", 20*time.Minute),
			Analyze:    p.MayDuration("ANALYZE_TIMEOUT", 0),
			Export:     p.MayDuration("EXPORT_TIMEOUT", 10*time.Minute),
		},
		Progress: p.MayBool("PROGRESS", false),
		DEMURL:   p.MayURL("DEM_URL", ""),
		DEMType:  p.MayEnum("DEM_TYPE", "AW3D30", "AW3D30", "SRTMGL1", "SRTMGL3", "COP30", "COP90", "NASADEM"),
	}
}
