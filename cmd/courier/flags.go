package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrymomot/courier/internal/config"
)

var errUsage = errors.New("usage error")

// cliOptions holds the command-line flags. Only flags the user set
// override the loaded configuration.
type cliOptions struct {
	set          map[string]bool
	configPath   string
	contacts     string
	checkpoint   string
	report       string
	controlAddr  string
	logLevel     string
	templatesDir string
	delay        time.Duration
	reset        bool
	noProbe      bool
}

func parseArgs(args []string, stderr io.Writer) (*cliOptions, error) {
	o := &cliOptions{set: map[string]bool{}}

	fs := flag.NewFlagSet("courier", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: courier [flags] <contacts.csv|contacts.xlsx>")
		fs.PrintDefaults()
	}

	fs.StringVar(&o.configPath, "config", "", "YAML configuration file")
	fs.DurationVar(&o.delay, "delay", 0, "wait between consecutive emails, e.g. 5s")
	fs.StringVar(&o.checkpoint, "checkpoint", "", "checkpoint file (file backend)")
	fs.StringVar(&o.report, "report", "", "failure report file, .csv or .xlsx")
	fs.StringVar(&o.controlAddr, "control-addr", "", "serve the control API on this address")
	fs.StringVar(&o.templatesDir, "templates", "", "directory for relative html_file paths")
	fs.BoolVar(&o.reset, "reset", false, "delete the checkpoint and start from the first row")
	fs.BoolVar(&o.noProbe, "no-probe", false, "treat the network as always reachable")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	switch fs.NArg() {
	case 0:
	case 1:
		o.contacts = fs.Arg(0)
	default:
		fs.Usage()
		return nil, errUsage
	}
	return o, nil
}

// apply overrides cfg with the flags that were set.
func (o *cliOptions) apply(cfg *config.Config) {
	if o.contacts != "" {
		cfg.Contacts = o.contacts
	}
	if o.set["delay"] {
		cfg.Delay = o.delay
	}
	if o.set["checkpoint"] {
		cfg.Checkpoint.Path = o.checkpoint
	}
	if o.set["report"] {
		cfg.Report.Path = o.report
	}
	if o.set["control-addr"] {
		cfg.Control.Addr = o.controlAddr
	}
	if o.set["templates"] {
		cfg.TemplatesDir = o.templatesDir
	}
	if o.set["no-probe"] {
		cfg.Probe.Disabled = o.noProbe
	}
	if o.set["log-level"] {
		cfg.Log.Level = o.logLevel
	}
}
