package main

import (
	"context"
	"os"

	"ecommify/internal/infra/logger"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		logger.Log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}
