package utils

import (
	"github.com/sirupsen/logrus"
)

var (
	isVerbose bool
)

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000000",
	})
}

func SetVerbose(verbose bool) {
	isVerbose = verbose
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

func IsVerbose() bool {
	return isVerbose
}

func Verbose(format string, args ...interface{}) {
	if isVerbose {
		logrus.Debugf(format, args...)
	}
}

func Info(format string, args ...interface{}) {
	logrus.Infof(format, args...)
}

// Logger returns the entry used for structured fields, e.g.
// utils.Logger().WithField("item", id).
func Logger() *logrus.Entry {
	return logrus.NewEntry(logrus.StandardLogger())
}
