package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aquasecurity/unt-scan/pkg"
)

var (
	version = "0.0.1"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := pkg.NewAppConfig().Run(ctx, version, os.Args)
	stop()
	os.Exit(code)
}
