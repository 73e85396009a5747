package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/giftbid/app/routes"
	"github.com/shashiranjanraj/giftbid/app/store"
	"github.com/shashiranjanraj/giftbid/internal/server"
	"github.com/shashiranjanraj/giftbid/pkg/workerpool"
)

// giftbid serve — start the HTTP server and the sweep scheduler.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start()
	},
}

// giftbid route:list — print all registered named routes.
// Wires the services over an in-memory store so no Mongo is needed.
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool := workerpool.New(1)
		defer pool.Shutdown()

		r := server.NewRouter()
		routes.RegisterAPI(r, server.Wire(store.NewMemory(), pool))

		lines := r.Routes()
		if len(lines) == 0 {
			fmt.Println("No named routes registered.")
			return nil
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}
