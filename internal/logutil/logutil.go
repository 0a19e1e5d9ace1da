package logutil

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cloud.google.com/go/compute/metadata"
)

// ConfigureLogger sets up the global logger. Events below level are sampled
// out. An unknown level falls back to info.
func ConfigureLogger(level string) {
	configure(level, os.Stderr, metadata.OnGCE())
}

func configure(level string, out io.Writer, onGCE bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(out).With().Timestamp().Caller().Stack().Logger()
	if onGCE {
		log.Logger = log.Hook(ErrorHook{})
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})
	}
	log.Logger = log.Sample(LevelSampler{Level: lvl})
}

// LevelSampler keeps events at or above Level.
type LevelSampler struct {
	Level zerolog.Level
}

func (s LevelSampler) Sample(lvl zerolog.Level) bool {
	return lvl >= s.Level
}

// ErrorHook adds the severity field Cloud Logging reads levels from.
type ErrorHook struct{}

func (h ErrorHook) Run(e *zerolog.Event, level zerolog.Level, _ string) {
	e.Str("severity", level.String())
}
