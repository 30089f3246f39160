package logger

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New returns a custom JSON logger
func New() logrus.FieldLogger {
	logger := logrus.New()
	if os.Getenv("ENV") == "test" {
		logger.SetOutput(io.Discard)
	}

	level := logrus.InfoLevel
	if l, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		level = l
	}
	logger.SetLevel(level)

	jsonFormatter := logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyMsg:   "message",
			logrus.FieldKeyLevel: "level",
		},
	}
	logger.SetFormatter(&jsonFormatter)

	return logger
}
