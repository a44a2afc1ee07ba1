package logger

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// Badger adapts a zerolog logger to badger.Logger. Badger messages end with a
// newline, which is trimmed.
type Badger struct {
	log zerolog.Logger
}

var _ badger.Logger = Badger{}

func NewBadger(log zerolog.Logger) Badger {
	return Badger{log: log.With().Str("component", "badger").Logger()}
}

func (b Badger) Errorf(format string, args ...interface{}) {
	b.log.Error().Msg(line(format, args))
}

func (b Badger) Warningf(format string, args ...interface{}) {
	b.log.Warn().Msg(line(format, args))
}

func (b Badger) Infof(format string, args ...interface{}) {
	b.log.Info().Msg(line(format, args))
}

func (b Badger) Debugf(format string, args ...interface{}) {
	b.log.Debug().Msg(line(format, args))
}

func line(format string, args []interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
