// Command giftbid is the operational CLI for the marketplace:
//
//	giftbid serve          # start the HTTP server + sweep scheduler
//	giftbid sweep:run      # settle expired auctions once and exit
//	giftbid schedule:run   # run the scheduler without the HTTP server
//	giftbid route:list     # print every named API route
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "giftbid",
	Short: "GiftBid — auction and donation marketplace",
	Long:  "GiftBid runs the listing lifecycle engine: auctions, donations, bids, orders, and reviews.",
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)
	rootCmd.AddCommand(sweepRunCmd)
	rootCmd.AddCommand(scheduleRunCmd)
}
