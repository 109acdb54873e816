package main

import (
	"os"

	"go-event-roster/cmd"
	"go-event-roster/core/logger"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logger.Error("run error", err)
		os.Exit(1)
	}
}
