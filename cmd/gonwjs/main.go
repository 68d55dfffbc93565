package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/gonwjs/gonwjs"
	"github.com/gonwjs/gonwjs/internal/fsutil"
)

func main() {
	app := &cli.App{
		Name:  "gonwjs",
		Usage: "run an NW.js app and bridge its events to stdin/stdout",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "open the app and forward stdin lines as events until the window closes",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "app",
						Usage: "Path to the app root (the folder containing package.json). Defaults to searching upward from the working directory.",
					},
					&cli.StringFlag{
						Name:  "nw-exec",
						Usage: "Path to the NW.js executable. Overrides the NWJS environment variable.",
					},
					&cli.StringFlag{
						Name:  "log-level",
						Usage: "Log level for bridge diagnostics.",
						Value: "info",
					},
					&cli.StringFlag{
						Name:  "tap-addr",
						Usage: "If set, serve the debug event tap on this address.",
					},
					&cli.StringSliceFlag{
						Name:  "print-event",
						Usage: "Event name to print to stdout when received. May be repeated.",
					},
				},
				Action: runAction,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runAction(c *cli.Context) error {
	appRoot := c.String("app")
	if appRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		appRoot = fsutil.FindUp("package.json", wd)
		if appRoot == "" {
			return fmt.Errorf("no package.json found upward of %s, pass --app", wd)
		}
	}

	var level zapcore.Level
	if err := level.Set(c.String("log-level")); err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	opts := []gonwjs.Option{gonwjs.WithLogLevel(level)}
	if exe := c.String("nw-exec"); exe != "" {
		opts = append(opts, gonwjs.WithExecutable(exe))
	}
	if addr := c.String("tap-addr"); addr != "" {
		opts = append(opts, gonwjs.WithTapAddr(addr))
	}

	for _, event := range c.StringSlice("print-event") {
		event := event
		err := gonwjs.On(event, func(payload any) {
			b, err := json.Marshal(payload)
			if err != nil {
				fmt.Printf("%s: %v\n", event, payload)
				return
			}
			fmt.Printf("%s: %s\n", event, b)
		})
		if err != nil {
			return err
		}
	}

	return gonwjs.Run(appRoot, func(s *gonwjs.Session) error {
		go forwardStdin(s)
		s.Wait()
		return nil
	}, opts...)
}

// forwardStdin emits one event per stdin line. A line is either a bare
// event name or "event<TAB>json-payload"; a payload that does not
// parse as JSON is sent as a string.
func forwardStdin(s *gonwjs.Session) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		event, rest, hasPayload := strings.Cut(line, "\t")
		var payload any
		if hasPayload {
			if err := json.Unmarshal([]byte(rest), &payload); err != nil {
				payload = rest
			}
		}
		if err := s.Emit(event, payload); err != nil {
			fmt.Fprintf(os.Stderr, "emit %s: %s\n", event, err)
			return
		}
	}
}
