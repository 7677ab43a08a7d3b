package logconfig

import (
	"strings"

	myLogger "github.com/sirupsen/logrus"
)

// This output format is used in tests (has terminal).
func ConfigDebugLogger() {
	myLogger.SetReportCaller(true)
	myLogger.SetLevel(myLogger.DebugLevel)
	myLogger.SetFormatter(terminalFormatter())
}

func ConfigInfoLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(terminalFormatter())
}

// This output format is used in production.
func ConfigProductionLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(&myLogger.JSONFormatter{})
}

// ConfigLogger picks one of the presets by name: debug, info or
// production. Anything else is treated as a logrus level name on top of
// the info preset.
func ConfigLogger(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		ConfigInfoLogger()
	case "debug":
		ConfigDebugLogger()
	case "production", "prod":
		ConfigProductionLogger()
	default:
		ConfigInfoLogger()
		lvl, err := myLogger.ParseLevel(level)
		if err != nil {
			myLogger.WithField("level", level).Warn("unknown log level, using info")
			return
		}
		myLogger.SetLevel(lvl)
	}
}

func terminalFormatter() *myLogger.TextFormatter {
	return &myLogger.TextFormatter{
		ForceColors:            true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	}
}
