package logging

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// exit is a seam for testing os.Exit.
var exit = os.Exit

// PrintfLogger bridges libraries that expect a Printf/Fatalf logger, such
// as goose, onto a Logger. Printf lines become info records and Fatalf
// logs an error record before exiting with status 1.
type PrintfLogger struct {
	l Logger
}

func NewPrintfLogger(l Logger) *PrintfLogger {
	return &PrintfLogger{l: l}
}

func (p *PrintfLogger) Printf(format string, v ...any) {
	p.l.Info(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (p *PrintfLogger) Fatalf(format string, v ...any) {
	p.l.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
	exit(1)
}
