// Package notify provides user-facing completion alert implementations.
package notify

import (
	"context"
	"fmt"

	"github.com/kbenzar/stovewatch/internal/domain"
	"github.com/kbenzar/stovewatch/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*TerminalNotifier)(nil)

// ANSI escape codes for terminal formatting.
const (
	reset = "\033[0m"
	bold  = "\033[1m"
	red   = "\033[31m"
	cyan  = "\033[36m"
)

// PrintFunc is a function used to print formatted output. Matches the
// signature of fmt.Printf.
type PrintFunc func(format string, a ...interface{})

// TerminalNotifier writes notifications to stdout with ANSI formatting.
type TerminalNotifier struct {
	log     *logger.Logger
	printFn PrintFunc
}

// NewTerminalNotifier creates a stdout-based notifier. If printFn is
// nil, fmt.Printf is used.
func NewTerminalNotifier(log *logger.Logger, printFn PrintFunc) *TerminalNotifier {
	if printFn == nil {
		printFn = func(format string, a ...interface{}) {
			fmt.Printf(format+"\n", a...)
		}
	}
	return &TerminalNotifier{log: log, printFn: printFn}
}

// RequestPermission always succeeds: a terminal needs none.
func (n *TerminalNotifier) RequestPermission(ctx context.Context) error {
	return nil
}

// Notify prints the alert in bold red with a cyan body.
func (n *TerminalNotifier) Notify(ctx context.Context, title, body string) error {
	n.log.Debug("notify: %s: %s", title, body)
	n.printFn("%s%s⏰ %s%s %s%s%s", red, bold, title, reset, cyan, body, reset)
	return nil
}
