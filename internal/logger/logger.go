package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a configured logrus logger. Debug level with a text formatter in
// debug mode, info level with JSON output otherwise.
func New(ginMode string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if ginMode == "release" {
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
