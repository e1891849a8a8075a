// Package logging configures the process-wide logrus logger from the
// REDIS_LOG environment variable.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Init sets the global logrus level from REDIS_LOG (one of logrus's
// level names: trace, debug, info, warn, error, fatal, panic). An
// unset or unrecognized value defaults to info.
func Init() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(os.Getenv("REDIS_LOG"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
