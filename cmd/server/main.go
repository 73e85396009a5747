package main

// cmd/server is the plain server entry point. Use cmd/giftbid for the full
// CLI (route:list, sweep:run, schedule:run).

import (
	"log"

	"github.com/shashiranjanraj/giftbid/internal/server"
)

func main() {
	if err := server.Start(); err != nil {
		log.Fatal(err)
	}
}
