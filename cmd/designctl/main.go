// Command designctl renders designs locally and drives a running designer
// backend from the shell.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const usage = `usage: designctl [-server URL] [-token JWT] [-loglevel LEVEL] <command> [flags]

commands:
  render     render a design file (JSON or YAML) to PNG without a backend
  templates  list canvas templates
  token      mint a bearer token signed with JWT_SECRET
  list       list saved designs
  save       save a design file under a name
  delete     delete a saved design
  search     search stock photos through the backend
  export     render a saved design to PNG
  share      print the configured social page link
`

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}

	server := flag.String("server", envOr("DESIGNER_URL", "http://localhost:3002"), "Backend base URL.")
	token := flag.String("token", os.Getenv("DESIGNER_TOKEN"), "Bearer token for the backend.")
	logLevel := flag.String("loglevel", "warn", "The log level (debug, info, warn, error).")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{server: *server, token: *token, out: os.Stdout}
	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		logrus.WithField("command", flag.Arg(0)).Error(err)
		stop()
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
