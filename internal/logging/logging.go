package logging

import (
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	serviceName = "snowbeat"
	serviceType = "Snowflake"
)

// New builds the run-scoped JSON logger. Log lines go to stderr so stdout
// stays a clean JSON-Lines data stream, and every line carries a generated
// trace.id for correlation. The returned entry is the only logger handle;
// nothing is installed globally.
func New(level string) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "@timestamp",
		},
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger.WithFields(logrus.Fields{
		"service.name": serviceName,
		"service.type": serviceType,
		"trace.id":     uuid.NewString(),
	})
}
