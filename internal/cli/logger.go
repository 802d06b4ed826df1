package cli

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sreenu926/50cube-staging/internal/config"
)

// newLogger builds the process logger from the log section. Unknown levels
// fall back to info.
func newLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(cfg.Log.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
