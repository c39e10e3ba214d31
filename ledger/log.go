package ledger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(io.Discard)

// InitLogger configures the package logger. Console output is pretty-printed
// when dev is set, JSON otherwise. Tests leave the logger discarded.
func InitLogger(level string, dev bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if dev {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	logger = zerolog.New(out).Level(lvl).With().Timestamp().Str("component", "ledger").Logger()
}
