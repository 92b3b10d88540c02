// Command server runs the dictionary HTTP API and the background import
// job manager.
//
// Exit codes: 0 = clean shutdown, 1 = error.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/heartmarshall/hanzi-backend/internal/app"
)

func main() {
	if err := app.Run(context.Background()); err != nil {
		slog.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
