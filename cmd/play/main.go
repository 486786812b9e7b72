package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"geocoin.ai/internal/client"
	"geocoin.ai/internal/client/tui"
)

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "server websocket URL")
		name  = flag.String("name", "player", "client name")
		token = flag.String("resume", "", "resume token from an earlier session (optional)")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, *url, *name, *token)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer c.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, "screen:", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "screen:", err)
		os.Exit(1)
	}

	runErr := tui.Run(ctx, screen, c)
	screen.Fini()

	fmt.Printf("resume token: %s\n", c.Welcome().ResumeToken)
	if runErr != nil && runErr != context.Canceled {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
}
