package utils

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Component names used as the "component" log field
const (
	ComponentUsage   = "USAGE"
	ComponentDrive   = "DRIVE"
	ComponentUpload  = "UPLOAD"
	ComponentStorage = "STORAGE"
	ComponentHTTP    = "HTTP"
)

// SetupLogging configures the root logger.
// Output goes to stdout and, when it can be opened, a dated log file. An empty
// logFile uses flaredrive_<date>.log; "-" disables the file.
func SetupLogging(logFile, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if logFile == "-" {
		logger.SetOutput(os.Stdout)
		return logger
	}
	if logFile == "" {
		logFile = fmt.Sprintf("flaredrive_%s.log", time.Now().Format("2006-01-02"))
	}

	// Fall back to stdout only if the file can't be created
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.SetOutput(os.Stdout)
		logger.Warnf("Could not create log file: %v", err)
		return logger
	}

	logger.SetOutput(io.MultiWriter(os.Stdout, file))
	return logger
}

// NewComponentLogger returns an entry tagged with the component name
func NewComponentLogger(logger *logrus.Logger, component string) *logrus.Entry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithField("component", component)
}
