package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/citemark/internal/log"
	"github.com/zjrosen/citemark/internal/tracing"
)

// debugEnabled reports whether --debug or CITEMARK_DEBUG asked for logs.
func debugEnabled() bool {
	return debugFlag || os.Getenv("CITEMARK_DEBUG") != ""
}

// startDiagnostics initializes logging (in debug mode) and tracing for a
// command. The viewer logs through tea.LogToFile. The returned cleanup
// flushes traces and closes the log.
func startDiagnostics(prefix string, tui bool) (func(), error) {
	closeLog, err := startLogging(prefix, tui)
	if err != nil {
		return nil, err
	}
	stopTracing := startTracing()
	return func() {
		stopTracing()
		closeLog()
	}, nil
}

func startLogging(prefix string, tui bool) (func(), error) {
	if !debugEnabled() {
		return func() {}, nil
	}

	logPath := os.Getenv("CITEMARK_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}

	var (
		closeLog func()
		err      error
	)
	if tui {
		closeLog, err = log.InitWithTeaLog(logPath, prefix)
	} else {
		closeLog, err = log.Init(logPath)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}

	level := log.ParseLevel(cfg.LogLevel)
	if debugFlag {
		level = log.LevelDebug
	}
	log.SetMinLevel(level)
	log.Info(log.CatConfig, "citemark starting", "command", prefix, "version", version, "logPath", logPath)
	return closeLog, nil
}

// startTracing installs the configured trace provider. Failures disable
// tracing rather than the command.
func startTracing() func() {
	tcfg := tracing.FromConfig(cfg.Tracing)
	// stdout carries command output and LSP messages.
	tcfg.Writer = os.Stderr
	provider, err := tracing.NewProvider(tcfg)
	if err != nil {
		log.ErrorErr(log.CatTrace, "Tracing disabled", err)
		return func() {}
	}
	if !provider.Enabled() {
		return func() {}
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			log.ErrorErr(log.CatTrace, "Tracing shutdown failed", err)
		}
	}
}

// commandContext returns cmd's context, or Background when the command was
// run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
