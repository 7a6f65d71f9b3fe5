package logger

import "time"

// Level is a log level.
type Level int

// Log levels.
const (
	Debug Level = iota
	Info
	Warn
	Error
)

// Destination is a log destination.
type Destination int

// Log destinations.
const (
	DestinationStdout Destination = iota
	DestinationFile
	DestinationSyslog
)

// Writer is an entity that can write log lines.
type Writer interface {
	Log(level Level, format string, args ...interface{})
}

type destination interface {
	log(t time.Time, level Level, format string, args ...interface{})
	close()
}
