package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"go.uber.org/automaxprocs/maxprocs"
)

// ErrInvalidLogFormat reports an unknown --log-format value.
var ErrInvalidLogFormat = fmt.Errorf("%w: log format must be text or json", ErrUsage)

// newLogger returns a logger writing to w. Quiet keeps errors only, verbose
// adds debug output, otherwise base is the level.
func newLogger(w io.Writer, common commonFlags, base logrus.Level, format string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(w)

	formatter, err := logFormatter(format)
	if err != nil {
		return nil, err
	}
	log.SetFormatter(formatter)

	switch {
	case common.quiet:
		log.SetLevel(logrus.ErrorLevel)
	case common.verbose:
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(base)
	}
	return log, nil
}

func logFormatter(format string) (logrus.Formatter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return &logrus.TextFormatter{FullTimestamp: true}, nil
	case "json":
		return &logrus.JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("%w: got %q", ErrInvalidLogFormat, format)
	}
}

// configureMaxProcs sets GOMAXPROCS from the container CPU quota.
// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
// in which case Go runtime defaults apply and the program continues safely.
func configureMaxProcs(log logrus.FieldLogger) {
	_, _ = maxprocs.Set(maxprocs.Logger(log.Debugf))
}
