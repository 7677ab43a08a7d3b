package logconfig

import (
	"testing"

	myLogger "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestConfigLogger(t *testing.T) {
	defer ConfigInfoLogger()

	ConfigLogger("debug")
	assert.Equal(t, myLogger.DebugLevel, myLogger.GetLevel())

	ConfigLogger("production")
	assert.Equal(t, myLogger.InfoLevel, myLogger.GetLevel())
	_, ok := myLogger.StandardLogger().Formatter.(*myLogger.JSONFormatter)
	assert.True(t, ok)

	ConfigLogger("warn")
	assert.Equal(t, myLogger.WarnLevel, myLogger.GetLevel())

	ConfigLogger("nonsense")
	assert.Equal(t, myLogger.InfoLevel, myLogger.GetLevel())
}
