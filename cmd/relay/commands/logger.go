package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

func newLogger(level, format string, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.Out = out

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	log.Level = lvl

	switch strings.ToLower(format) {
	case "", "json":
		log.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "severity",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		}
	case "text":
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be json or text, got %q", format)
	}

	return log, nil
}
