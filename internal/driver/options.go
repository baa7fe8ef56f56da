package driver

import (
	"viper/internal/observ"
	"viper/internal/project"
	"viper/internal/trace"
)

// Options is the whole configuration of one compilation session.
type Options struct {
	Entry            string // модуль-точка входа, остальные считаются библиотеками
	MaxIterations    int
	Jobs             int
	Reporting        bool
	WarningsAsErrors bool
	HideWarnings     bool
	MaxDiagnostics   int

	Timer  *observ.Timer
	Tracer trace.Tracer // nil: берётся из context
}

func DefaultOptions() Options {
	return OptionsFromConfig(project.DefaultConfig())
}

// OptionsFromConfig maps a viper.toml onto session options.
func OptionsFromConfig(cfg project.Config) Options {
	return Options{
		Entry:            cfg.Build.Entry,
		MaxIterations:    cfg.Build.MaxIterations,
		Jobs:             cfg.Build.Jobs,
		Reporting:        cfg.Diagnostics.Reporting,
		WarningsAsErrors: cfg.Diagnostics.WarningsAsErrors,
		MaxDiagnostics:   cfg.Diagnostics.Max,
	}
}
