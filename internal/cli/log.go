package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger writes timestamped, structured lines to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times a command. Each stage is logged at debug level with the
// time since the previous one; done logs the total at info level.
type progress struct {
	logger *log.Logger
	start  time.Time
	last   time.Time
}

func newProgress(l *log.Logger) *progress {
	now := time.Now()
	return &progress{logger: l, start: now, last: now}
}

// stage logs the end of one step, e.g. "read graph" nodes=120 took=4ms.
func (p *progress) stage(name string, keyvals ...any) {
	now := time.Now()
	p.logger.Debug(name, append(keyvals, "took", now.Sub(p.last).Round(time.Microsecond))...)
	p.last = now
}

// done logs msg with the total elapsed time.
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg, append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))...)
}
