package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("loaded map") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("routed") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("routed") }, true},
		{"warn at info level", log.InfoLevel, func(l *log.Logger) { l.Warn("dropped invalid input") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgressStages(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.DebugLevel))

	prog.stage("read graph", "nodes", 3)
	prog.stage("packed")
	prog.done("Layout complete", "mode", "packed")

	out := buf.String()
	for _, want := range []string{"read graph", "nodes=3", "took=", "Layout complete", "mode=packed", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestProgressStagesHiddenAtInfo(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))

	prog.stage("read graph")
	if buf.Len() != 0 {
		t.Errorf("stage logged at info level: %q", buf.String())
	}
	prog.done("Layout complete")
	if !strings.Contains(buf.String(), "Layout complete") {
		t.Error("done() should log at info level")
	}
}
