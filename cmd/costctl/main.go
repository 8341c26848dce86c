// Package main is the entry point for the costctl operator CLI.
package main

import (
	"os"

	"delivery_costs_backend/cmd/costctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
