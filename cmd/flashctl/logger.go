package main

import (
	"fmt"
	"io"
	"log"
	"strings"
)

const (
	colorReset = "\x1b[0m"
	colorRed   = "\x1b[31m"
	colorGreen = "\x1b[32m"
	colorCyan  = "\x1b[36m"
)

// cliLogger implements flash.Logger on top of the standard logger with
// colored level tags.
type cliLogger struct {
	out     *log.Logger
	verbose bool
}

func newLogger(w io.Writer, verbose bool) *cliLogger {
	return &cliLogger{
		out:     log.New(w, "", log.Ltime),
		verbose: verbose,
	}
}

func (l *cliLogger) Debug(msg string, keysAndValues ...interface{}) {
	if l.verbose {
		l.print(colorCyan, "DEBUG", msg, keysAndValues)
	}
}

func (l *cliLogger) Info(msg string, keysAndValues ...interface{}) {
	l.print(colorGreen, "INFO ", msg, keysAndValues)
}

func (l *cliLogger) Error(msg string, keysAndValues ...interface{}) {
	l.print(colorRed, "ERROR", msg, keysAndValues)
}

func (l *cliLogger) print(color, level, msg string, keysAndValues []interface{}) {
	var b strings.Builder
	b.WriteString(color + level + colorReset + " " + msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&b, " %v", keysAndValues[i])
		}
	}
	l.out.Print(b.String())
}
