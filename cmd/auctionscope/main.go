// Package main is the entry point for the auctionscope CLI.
package main

import (
	"os"

	"github.com/auctionscope/auctionscope/cmd/auctionscope/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
