package util

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pynezz/threatdash/pkg/types"
)

// Ansi colors
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Gray   = "\033[37m"
	White  = "\033[97m"
)

// Ansi styles
const (
	Bold      = "\033[1m"
	Italic    = "\033[3m"
	Underline = "\033[4m"
)

// Ansi 256 light colors
const (
	LightRed    = "\033[91m"
	LightGreen  = "\033[92m"
	LightYellow = "\033[93m"
	LightBlue   = "\033[94m"
	LightCyan   = "\033[96m"
)

var (
	outMu sync.Mutex
	out   io.Writer = os.Stdout
)

// SetOutput redirects the console helpers, mostly for tests and the TUI
// (which owns the terminal while it runs).
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	out = w
}

func printf(format string, a ...interface{}) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(out, format, a...)
}

// PrintSuccess prints a success message to the console
func PrintSuccess(msg string) {
	printf("%s[+]%s %s\n", Green, Reset, msg)
}

// PrintError prints an error message to the console
func PrintError(msg string) {
	printf("%s[!]%s %s\n", Red, Reset, msg)
}

// PrintErrorf prints a formatted error message to the console
func PrintErrorf(format string, a ...interface{}) {
	printf("%s[!]%s %s\n", Red, Reset, fmt.Sprintf(format, a...))
}

// PrintInfo prints an info message to the console
func PrintInfo(msg string) {
	printf("%s[i]%s %s\n", Cyan, Reset, msg)
}

// PrintWarning prints a warning message to the console
func PrintWarning(msg string) {
	printf("%s[-]%s %s\n", Yellow, Reset, msg)
}

// PrintDebug prints a debug message to the console
func PrintDebug(msg string) {
	printf("%s[DEBUG]%s %s\n", Gray, Reset, msg)
}

// PrintColor prints a colored message to the console
func PrintColor(color, msg string) {
	printf("%s%s%s\n", color, msg, Reset)
}

func PrintColorBold(color, msg string) {
	printf("%s%s%s\n", color+Bold, msg, Reset)
}

func ColorF(color, format string, a ...interface{}) string {
	return fmt.Sprintf("%s%s%s", color, fmt.Sprintf(format, a...), Reset)
}

func ItalicF(format string, a ...interface{}) string {
	return fmt.Sprintf("%s%s%s", Italic, fmt.Sprintf(format, a...), Reset)
}

// Errorf builds an error whose message is already colored for the console.
func Errorf(format string, a ...interface{}) error {
	return fmt.Errorf("%s[!]%s %s", Red, Reset, fmt.Sprintf(format, a...))
}

// SeverityColor returns the console color of a CVE severity tier.
func SeverityColor(s types.Severity) string {
	switch s {
	case types.SeverityCritical:
		return LightRed + Bold
	case types.SeverityHigh:
		return Red
	case types.SeverityMedium:
		return Yellow
	default:
		return Green
	}
}
