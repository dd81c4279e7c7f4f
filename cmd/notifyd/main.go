package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"notifyd/internal/app"
	"notifyd/internal/channel"
	"notifyd/internal/dispatch"
)

func main() {
	var (
		cfgPath string
		oneShot string
		toList  string
	)
	flag.StringVar(&cfgPath, "config", "./notifyd.yaml", "path to config file (yaml or json)")
	flag.StringVar(&oneShot, "send", "", "send this message once and exit instead of running the daemon")
	flag.StringVar(&toList, "to", "", "comma-separated recipient ids for -send (default: per-channel defaults)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	if oneShot != "" {
		if err := sendOnce(a, oneShot, toList); err != nil {
			fmt.Fprintln(os.Stderr, "send:", err)
			_ = a.Stop(context.Background())
			os.Exit(1)
		}
		_ = a.Stop(context.Background())
		return
	}

	if err := a.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fatal start:", err)
		os.Exit(1)
	}

	select {
	case <-ctx.Done():
	case <-a.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx)

	if err := a.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func sendOnce(a *app.App, message, toList string) error {
	var recipients []channel.Recipient
	if toList != "" {
		for _, id := range strings.Split(toList, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			recipients = append(recipients, channel.Recipient{ID: id})
		}
	}

	b := dispatch.NewBlocking(a.Notifier())
	defer b.Close()
	return b.Send(message, recipients)
}
