// Command adminboard runs the admin platform server and its operational
// subcommands.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jzelenk/adminboard/internal/app"
	"github.com/jzelenk/adminboard/internal/auditlog"
	log "github.com/sirupsen/logrus"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: adminboard <command> [flags]

commands:
  serve              run the HTTP server
  migrate            run database migrations and exit
  regenerate-tokens  rotate every user token
  notify             broadcast a push notification
  logs               print audit log entries

common flags:
  -config <path>     config file (default adminboard.yaml)
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "serve":
		fs := flag.NewFlagSet("serve", flag.ExitOnError)
		configPath := fs.String("config", "adminboard.yaml", "config file path")
		_ = fs.Parse(args)
		err = app.RunServer(ctx, *configPath)
	case "migrate":
		fs := flag.NewFlagSet("migrate", flag.ExitOnError)
		configPath := fs.String("config", "adminboard.yaml", "config file path")
		_ = fs.Parse(args)
		err = app.Migrate(ctx, *configPath)
	case "regenerate-tokens":
		fs := flag.NewFlagSet("regenerate-tokens", flag.ExitOnError)
		configPath := fs.String("config", "adminboard.yaml", "config file path")
		_ = fs.Parse(args)
		err = app.RegenerateTokens(ctx, *configPath)
	case "notify":
		fs := flag.NewFlagSet("notify", flag.ExitOnError)
		configPath := fs.String("config", "adminboard.yaml", "config file path")
		title := fs.String("title", "", "notification title")
		message := fs.String("message", "", "notification message")
		_ = fs.Parse(args)
		err = app.Notify(ctx, *configPath, *title, *message)
	case "logs":
		fs := flag.NewFlagSet("logs", flag.ExitOnError)
		configPath := fs.String("config", "adminboard.yaml", "config file path")
		status := fs.String("status", auditlog.StatusAll, "status filter: all, UNREADED or READED")
		_ = fs.Parse(args)
		err = app.ReadLogs(ctx, *configPath, *status, os.Stdout)
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.WithError(err).Errorf("%s failed", command)
		os.Exit(1)
	}
}
