package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/stringshare/ordervault/internal/cli"
	"github.com/stringshare/ordervault/internal/server"
	"github.com/stringshare/ordervault/internal/server/config"
)

func main() {

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigs
		cancel()
	}()

	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	c := cli.NewApp(app.Users, app.Orders, app.Attachments, os.Stdin, os.Stdout)
	if err := c.Run(ctx, flagArgs()); err != nil {
		log.Fatalf("%v", err)
	}
}

// flagArgs strips the config flags the server already consumed and leaves
// the subcommand and its arguments.
func flagArgs() []string {
	var args []string
	skip := false
	for _, a := range os.Args[1:] {
		if skip {
			skip = false
			continue
		}
		if len(a) > 0 && a[0] == '-' {
			skip = !strings.Contains(a, "=")
			continue
		}
		args = append(args, a)
	}
	return args
}
