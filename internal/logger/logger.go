package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\033[0m"
	ansiDim    = "\033[2m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

var (
	mu       sync.Mutex
	colorOut = detectColor()
)

// detectColor enables ANSI colors only when stdout is an interactive terminal
// and NO_COLOR is unset.
func detectColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func paint(code, s string) string {
	if !colorOut {
		return s
	}
	return code + s + ansiReset
}

func line(level, code, tag, msg string) {
	ts := time.Now().Format("15:04:05")
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(os.Stdout, "%s %s %s %s\n",
		paint(ansiDim, ts),
		paint(code, fmt.Sprintf("%-4s", level)),
		paint(ansiBold, "["+tag+"]"),
		msg)
}

// Info logs a neutral progress message.
func Info(tag, msg string) { line("INFO", ansiCyan, tag, msg) }

// Success logs a completed step.
func Success(tag, msg string) { line("OK", ansiGreen, tag, msg) }

// Warn logs a recoverable problem (bad data, a failed fetch).
func Warn(tag, msg string) { line("WARN", ansiYellow, tag, msg) }

// Error logs a failure.
func Error(tag, msg string) { line("ERR", ansiRed, tag, msg) }

// Section prints a heading used to group Stats lines.
func Section(title string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(os.Stdout, "\n%s\n", paint(ansiBold, "── "+title+" "+strings.Repeat("─", max(0, 40-len(title)))))
}

// Stats prints a single "key: value" counter line.
func Stats(key string, value int) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(os.Stdout, "   %-20s %s\n", key+":", paint(ansiCyan, humanize.Comma(int64(value))))
}

// Banner prints the startup banner.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(os.Stdout, "%s %s\n", paint(ansiBold, "EVE Starmap"), paint(ansiDim, version))
}

// Server logs the listening address.
func Server(addr string) {
	line("OK", ansiGreen, "Server", fmt.Sprintf("Listening on http://%s", addr))
}
