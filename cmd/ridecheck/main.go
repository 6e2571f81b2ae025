// Package main is the ridecheck command-line tool. Without a subcommand it
// checks the configured commute and prints a recommendation; "classify" and
// "evaluate" expose the topology and verdict steps on their own.
package main

import (
	"os"

	"ridecheck/internal/app"
	"ridecheck/internal/config"
)

func main() {
	cmd := newRootCmd(func() (*config.Config, error) {
		provider := app.SecretProvider(os.Getenv("APP_ENV"), os.Getenv("AWS_REGION"), os.Getenv("AWS_ENDPOINT_URL"))
		return config.LoadConfig(provider)
	})
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
