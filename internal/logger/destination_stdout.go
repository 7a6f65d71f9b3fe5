package logger

import (
	"bytes"
	"os"
	"time"
)

type destinationStdout struct {
	buf bytes.Buffer
}

func newDestinationStdout() destination {
	return &destinationStdout{}
}

func (d *destinationStdout) log(t time.Time, level Level, format string, args ...interface{}) {
	d.buf.Reset()
	writeTime(&d.buf, t, true)
	writeLevel(&d.buf, level, true)
	writeContent(&d.buf, format, args)
	os.Stdout.Write(d.buf.Bytes()) //nolint:errcheck
}

func (d *destinationStdout) close() {
}
