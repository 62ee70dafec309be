// Package term detects terminal color support for CLI diagnostics output.
// The compiler core never prints; only the CLI and server layers use this.
package term

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Level grades color support: 0 none, 1 basic 16 colors, 256, or truecolor.
type Level int

const (
	LevelNone  Level = 0
	LevelBasic Level = 1
	Level256   Level = 256
	LevelTrue  Level = 16777216
)

var (
	levelOnce sync.Once
	levelVal  Level
)

func detectLevel() Level {
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return LevelNone
	}

	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return LevelNone
	}

	term := os.Getenv("TERM")
	if term == "dumb" {
		return LevelNone
	}

	colorTerm := os.Getenv("COLORTERM")
	if colorTerm == "truecolor" || colorTerm == "24bit" {
		return LevelTrue
	}

	if strings.Contains(term, "256color") {
		return Level256
	}

	return LevelBasic
}

// ColorLevel returns the detected support level, cached after first call.
func ColorLevel() Level {
	levelOnce.Do(func() {
		levelVal = detectLevel()
	})
	return levelVal
}

func wrap(code, s string) string {
	if ColorLevel() == LevelNone {
		return s
	}
	return code + s + "\x1b[0m"
}

// Red styles error text.
func Red(s string) string { return wrap("\x1b[31m", s) }

// Yellow styles warning text.
func Yellow(s string) string { return wrap("\x1b[33m", s) }

// Bold styles emphasized text.
func Bold(s string) string { return wrap("\x1b[1m", s) }

// Dim styles secondary text such as source locations.
func Dim(s string) string { return wrap("\x1b[2m", s) }
