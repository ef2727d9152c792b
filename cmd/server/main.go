// Command server runs the trading journal HTTP API.
package main

import (
	"context"
	"log"

	"github.com/imishra/tradejournal/internal/app"
)

func main() {
	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
