package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/config"
	"github.com/GuangYiDing/IDESync-VSCode-JetBrains/internal/state"
)

// setupLogging routes the standard logger to a rotating log file when one is
// configured. Headless endpoints often run unattended next to an editor for
// days; unbounded stderr redirection is how disks fill up.
func setupLogging(cfg *config.Config) {
	if cfg.LogFile == "" {
		return
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	})
}

// printState writes one received state as a single human-readable line.
func printState(w io.Writer, s state.EditorState) {
	line := fmt.Sprintf("[%s] %s %s %d:%d active=%t",
		s.Source, s.Action, s.FilePath, s.Line, s.Column, s.IsActive)
	if s.HasVisibleRange() {
		line += fmt.Sprintf(" visible=%d..%d", *s.VisibleRangeStart, *s.VisibleRangeEnd)
	}
	fmt.Fprintln(w, line)
}

// waitForInterrupt blocks until SIGINT or SIGTERM.
func waitForInterrupt() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}
