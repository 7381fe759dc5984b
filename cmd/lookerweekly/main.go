// Command lookerweekly exports last week's table from the reporting
// dashboard and consolidates every weekly export into one workbook.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/woskam/looker-studio-automation/cmd/lookerweekly/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.ExecuteContext(ctx)
	stop()
	os.Exit(code)
}
