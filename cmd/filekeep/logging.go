package main

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/sagarc03/filekeep/config"
)

// setupLogging installs the process-wide logger: JSON on stdout in
// production, colored tint output on stderr otherwise. The standard library
// logger is routed through it as well.
func setupLogging(cfg *config.Config) {
	out := io.Writer(os.Stderr)
	if isProduction(cfg.Env) {
		out = os.Stdout
	}

	logger := slog.New(newLogHandler(out, cfg.Env, parseLevel(cfg.Log.Level)))
	slog.SetDefault(logger)

	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(logger.Handler(), slog.LevelInfo).Writer())
}

func isProduction(env string) bool {
	return env == "prod" || env == "production"
}

func newLogHandler(w io.Writer, env string, level slog.Level) slog.Handler {
	if !isProduction(env) {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  level <= slog.LevelDebug,
			TimeFormat: "15:04:05.000",
		})
	}

	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key != slog.TimeKey {
				return a
			}
			return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
		},
	})
}

// parseLevel maps a level name to slog; unknown names fall back to info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
