package log

import (
	"log/slog"
	"strings"
)

// Config is a declarative logger configuration, typically sourced from
// process environment variables or a config file field.
type Config struct {
	// Level is one of debug|info|warn|error|fatal. Empty defaults to info.
	Level string `json:"level"`
	// Format is "text" (default) or "json".
	Format string `json:"format"`
	// OutputPath is "" or "stdout" for the console, "none"/"discard" to
	// suppress output entirely, or a filesystem path to append to.
	OutputPath string `json:"outputPath,omitempty"`
	// SampleInitial/SampleThereafter enable per-message-key sampling: the
	// first SampleInitial occurrences of a (level, message) pair are
	// emitted, then every SampleThereafter-th occurrence after that.
	SampleInitial    int `json:"sampleInitial,omitempty"`
	SampleThereafter int `json:"sampleThereafter,omitempty"`
	// RedactFields names structured field keys whose values are replaced
	// with "[REDACTED]" before formatting.
	RedactFields []string `json:"redactFields,omitempty"`
}

// ApplyConfig builds a Logger from a declarative Config.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		lvl = InfoLevel
	}

	var formatter Formatter = &TextFormatter{}
	if strings.EqualFold(cfg.Format, "json") {
		formatter = &JSONFormatter{}
	}

	var output Output
	switch strings.ToLower(cfg.OutputPath) {
	case "", "stdout":
		output = NewConsoleOutput()
	case "none", "discard":
		output = NullOutput{}
	default:
		fo, ferr := NewFileOutput(cfg.OutputPath)
		if ferr != nil {
			return nil, ferr
		}
		output = fo
	}

	logger := NewLogger(WithLevel(lvl), WithFormatter(formatter), WithOutput(output))
	bl, ok := logger.(*BaseLogger)
	if !ok {
		return logger, nil
	}
	if bh, ok2 := bl.slogLogger.Handler().(*bridgeHandler); ok2 {
		nh := bh
		if len(cfg.RedactFields) > 0 {
			nh = nh.withRedactions(cfg.RedactFields)
		}
		if cfg.SampleThereafter > 0 {
			nh = nh.withSampler(cfg.SampleInitial, cfg.SampleThereafter)
		}
		bl.slogLogger = slog.New(nh)
	}
	return logger, nil
}
