//go:build !darwin && !windows

package logger

import (
	"bytes"
	"fmt"
	"log/syslog"
	"time"
)

type destinationSyslog struct {
	w   *syslog.Writer
	buf bytes.Buffer
}

func newDestinationSyslog(prefix string) (destination, error) {
	w, err := syslog.New(syslog.LOG_DAEMON, prefix)
	if err != nil {
		return nil, err
	}

	return &destinationSyslog{w: w}, nil
}

func (d *destinationSyslog) log(_ time.Time, level Level, format string, args ...interface{}) {
	d.buf.Reset()
	fmt.Fprintf(&d.buf, format, args...)
	msg := d.buf.String()

	switch level {
	case Debug:
		d.w.Debug(msg) //nolint:errcheck
	case Info:
		d.w.Info(msg) //nolint:errcheck
	case Warn:
		d.w.Warning(msg) //nolint:errcheck
	case Error:
		d.w.Err(msg) //nolint:errcheck
	}
}

func (d *destinationSyslog) close() {
	d.w.Close() //nolint:errcheck
}
