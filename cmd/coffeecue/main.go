package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fruithappens/Coffeecue-sub002/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	stationID := flag.Int("station", 0, "station to operate as (overrides config)")
	pollSeconds := flag.Int("poll", 0, "refresh interval in seconds (floor 30s)")
	offline := flag.Bool("offline", false, "run without a server, with sample data")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		StationID:  *stationID,
		PollEvery:  *pollSeconds,
		Offline:    *offline,
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "coffeecue: %v\n", err)
		return 1
	}
	return 0
}
