package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"condo_calendar/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "condoctl:", err)
		stop()
		os.Exit(1)
	}
}
