package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"coopsched/internal/daemon"
)

func main() {
	var (
		cfgPath     string
		interactive bool
	)
	flag.StringVar(&cfgPath, "config", "", "path to config yaml/json (empty: defaults)")
	flag.BoolVar(&interactive, "i", false, "interactive shell instead of daemon mode")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := daemon.New(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	if interactive {
		err = app.RunInteractive(ctx, os.Stdin, os.Stdout)
	} else {
		err = app.Run(ctx)
	}
	if err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}
