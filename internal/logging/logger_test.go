package logging

import (
	"testing"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"

	"ridepool/internal/config"
)

func TestNew_LevelAndFormat(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"bogus", logrus.InfoLevel},
		{"", logrus.InfoLevel},
	}

	for _, tt := range tests {
		logger := New(config.LogConfig{Level: tt.level})
		if logger.GetLevel() != tt.want {
			t.Errorf("level %q: expected %s, got %s", tt.level, tt.want, logger.GetLevel())
		}
	}

	if _, ok := New(config.LogConfig{Format: "json"}).Formatter.(*logrus.JSONFormatter); !ok {
		t.Error("expected JSON formatter")
	}
}

func TestNew_FileOutputRotates(t *testing.T) {
	logger := New(config.LogConfig{File: t.TempDir() + "/app.log", MaxSizeMB: 1})

	if _, ok := logger.Out.(*lumberjack.Logger); !ok {
		t.Fatalf("expected lumberjack writer, got %T", logger.Out)
	}
}
