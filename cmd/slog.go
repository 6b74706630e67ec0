package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

func init() {
	level := slog.LevelInfo
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		if err := level.UnmarshalText([]byte(s)); err != nil {
			panic(fmt.Sprintf("invalid log level: %s", s))
		}
	}

	slog.SetDefault(slog.New(newLogHandler(os.Stdout, os.Stderr, level)))
	if level == slog.LevelDebug {
		slog.Info("debug logging enabled")
	}
}

// newLogHandler returns a colored tint handler with source locations for
// debug logging, and a JSON handler on errOut otherwise.
func newLogHandler(out, errOut io.Writer, level slog.Level) slog.Handler {
	if level != slog.LevelDebug {
		return slog.NewJSONHandler(errOut, &slog.HandlerOptions{Level: level})
	}

	prefix := modulePrefix()
	return tint.NewHandler(out, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.TimeOnly,
		AddSource:  true,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					source.File = cleanSourcePath(source.File, prefix)
				}
			}
			if err, ok := a.Value.Any().(error); ok {
				aErr := tint.Err(err)
				aErr.Key = a.Key
				return aErr
			}
			return a
		},
	})
}

// modulePrefix is "/<last module path element>/", used to shorten source paths
func modulePrefix() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Path == "" {
		if wd, err := os.Getwd(); err == nil {
			return "/" + filepath.Base(filepath.Dir(wd)) + "/"
		}
		return "/snapgram/"
	}
	return "/" + info.Main.Path[strings.LastIndex(info.Main.Path, "/")+1:] + "/"
}

func cleanSourcePath(filePath, prefix string) string {
	if _, rest, ok := strings.Cut(filePath, prefix); ok {
		return rest
	}
	if idx := strings.LastIndex(filePath, "/go/src/"); idx != -1 {
		return filePath[idx+len("/go/src/"):]
	}
	if idx := strings.LastIndex(filePath, "/src/"); idx != -1 {
		return filePath[idx+len("/src/"):]
	}
	return filePath
}
