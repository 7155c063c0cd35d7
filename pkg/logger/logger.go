package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool   `split_words:"true" default:"false"`
	PrettyFormat bool   `split_words:"true" default:"false"`
	Level        string `split_words:"true"`
}

var DefaultConfig = &Config{
	Debug:        false,
	PrettyFormat: false,
}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

// Init replaces the global logger. Level, when set, wins over Debug.
func Init(opts ...Config) {
	conf := safe(opts...)

	var w io.Writer = os.Stdout
	if conf.PrettyFormat {
		w = zerolog.NewConsoleWriter()
	}
	log.Logger = New(w, *conf)
}

// New builds a logger writing to w.
func New(w io.Writer, conf Config) zerolog.Logger {
	return zerolog.New(w).
		Level(conf.level()).
		With().
		Timestamp().
		Caller().
		Stack().
		Logger()
}

// Sub returns a child of the global logger tagged with a subsystem name.
func Sub(subsystem string) zerolog.Logger {
	return log.Logger.With().Str("subsystem", subsystem).Logger()
}

func (c Config) level() zerolog.Level {
	if lvl := strings.TrimSpace(c.Level); lvl != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(lvl)); err == nil {
			return parsed
		}
	}
	if c.Debug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
