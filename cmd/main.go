package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"revshare/internal/bootstrap"
	"revshare/pkg/errors"
)

func main() {
	c := bootstrap.NewContainer()
	c.MustInit()

	if err := c.Start(); err != nil {
		c.Log.Fatalf("Failed to start: %v", err)
	}

	// cancel the run on SIGINT/SIGTERM; the engine returns a partial result
	go waitForSignal(c)

	result, err := c.Run()
	exitCode := 0
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrRunAborted):
		c.Log.Warnf("Simulation interrupted: %v", err)
		_ = c.ErrorTracker.CaptureMessage(c.Context, err.Error(), errors.LevelWarning, map[string]string{
			"run_id": c.Engine.RunID().String(),
		})
	case errors.Is(err, errors.ErrEmptyPool):
		c.Log.Warnf("Simulation ended early: %v", err)
	default:
		c.Log.Errorf("Simulation failed: %v", err)
		exitCode = 1
	}

	if result != nil {
		fmt.Print(result.Summary())
	}

	c.Shutdown()
	os.Exit(exitCode)
}

// waitForSignal cancels the container context on the first shutdown signal
func waitForSignal(c *bootstrap.Container) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		c.Log.Info("Shutdown signal received")
		c.Cancel()
	case <-c.Context.Done():
	}
}
