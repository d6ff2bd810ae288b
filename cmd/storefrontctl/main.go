// Package main provides storefrontctl, an operator CLI for the storefront tag
// index and demo data.
//
// Usage:
//
//	storefrontctl --data-path ~/storefront tags for product 1
//	storefrontctl --data-path ~/storefront tags attach product 1 Sale
//	storefrontctl --data-path ~/storefront seed
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(ctx)
	rootCmd.SetOut(os.Stdout)

	if err := rootCmd.Execute(); err != nil {
		stop()
		os.Exit(1)
	}
}
