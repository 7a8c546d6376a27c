// restclient CLI - pack and unpack saved REST request/response archives
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/TanyaEf/rest-client/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
	})
	stop()
	os.Exit(code)
}
