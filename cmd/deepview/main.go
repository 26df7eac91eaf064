package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/example/deepview/internal/config"
	"github.com/example/deepview/internal/notify"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs       *flag.FlagSet
	program  string
	notifier *notify.Notifier
	config   *config.Config

	configPath string
	copyAlerts bool
	loadAlerts bool
	debug      bool
	debugAddr  string
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	prefs := notify.LoadPreferences()
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("deepview", flag.ExitOnError),
		program:  "deepview",
		notifier: notify.New(prefs),
		config:   cfg,
	}
	r.fs.StringVar(&r.configPath, "config-path", "", "load configuration from this file instead of the default locations")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	r.fs.BoolVar(&r.loadAlerts, "notify-load", cfg.Notify.Load, "show a desktop notification after an image finishes loading")
	r.fs.BoolVar(&r.debug, "debug", cfg.Debug, "publish engine state over the debug websocket")
	r.fs.StringVar(&r.debugAddr, "debug-addr", cfg.DebugAddr, "listen address for the debug websocket")
	r.fs.Usage = usageFunc(r)
	return r
}

// reloadConfig re-reads configuration from an explicit -config-path. Flags
// the user set on the command line keep their values; everything else picks
// up the new file.
func (r *root) reloadConfig() error {
	cfg, err := config.NewLoader(version, r.configPath).Load()
	if err != nil {
		return fmt.Errorf("load config %s: %w", r.configPath, err)
	}
	set := map[string]bool{}
	r.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["notify-copy"] {
		r.copyAlerts = cfg.Notify.Copy
	}
	if !set["notify-load"] {
		r.loadAlerts = cfg.Notify.Load
	}
	if !set["debug"] {
		r.debug = cfg.Debug
	}
	if !set["debug-addr"] {
		r.debugAddr = cfg.DebugAddr
	}
	r.config = cfg
	return nil
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.configPath != "" {
		if err := r.reloadConfig(); err != nil {
			return err
		}
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.notifier != nil {
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
		r.notifier.Enable(notify.EventLoad, r.loadAlerts)
	}

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "view":
		cmd, err = parseViewCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func (r *root) notifyLoad(detail string, img image.Image) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Load(detail, img)
}

func (r *root) notifyCopy(detail string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Copy(strings.TrimSpace(detail))
}
