package main

import (
	"os"

	"github.com/velic0/game-telemetry/internal/app"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	if err := app.Run(version, buildTime); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
