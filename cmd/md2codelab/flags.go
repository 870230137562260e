package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// ErrUsage wraps flag parsing and argument errors.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// fetchFlags holds flags for retrieving remote Markdown.
type fetchFlags struct {
	allowedPrefix string
	timeout       time.Duration
	userAgent     string
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common     commonFlags
	fetch      fetchFlags
	addr       string
	dsn        string
	viewsLimit int
	dateFormat string
	logLevel   string
	logFormat  string
	assetPath  string
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common    commonFlags
	fetch     fetchFlags
	output    string
	assetPath string
	noBreaks  bool
	noTables  bool
}

// configFlags holds flags for the config command.
type configFlags struct {
	common commonFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed progress")
}

// addFetchFlags adds remote source flags to a FlagSet.
func addFetchFlags(fs *flag.FlagSet, f *fetchFlags) {
	fs.StringVar(&f.allowedPrefix, "allowed-prefix", "", "accepted source URL prefix")
	fs.DurationVarP(&f.timeout, "fetch-timeout", "t", 0, "source fetch timeout (e.g., 10s, 1m)")
	fs.StringVar(&f.userAgent, "user-agent", "", "User-Agent sent when fetching sources")
}

func newFlagSet(name string, usage func(io.Writer), out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { usage(out) }
	return fs
}

// parse runs fs.Parse, printing usage on --help and wrapping other errors
// in ErrUsage.
func parse(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, flag.ErrHelp):
		fs.Usage()
		return err
	default:
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, out io.Writer) (*serveFlags, []string, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", printServeUsage, out)

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (host:port)")
	fs.StringVar(&f.dsn, "db", "", "SQLite database path")
	fs.IntVar(&f.viewsLimit, "views-limit", 0, "rows on the /views page")
	fs.StringVar(&f.dateFormat, "date-format", "", "timestamp format on the /views page")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: console, json, pretty")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	addFetchFlags(fs, &f.fetch)
	addCommonFlags(fs, &f.common)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, out io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newFlagSet("convert", printConvertUsage, out)

	fs.StringVarP(&f.output, "output", "o", "", "output HTML file (default: stdout)")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.BoolVar(&f.noBreaks, "no-line-breaks", false, "keep soft line breaks as spaces")
	fs.BoolVar(&f.noTables, "no-tables", false, "disable GitHub-flavored tables")
	addFetchFlags(fs, &f.fetch)
	addCommonFlags(fs, &f.common)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseConfigFlags parses config command flags.
func parseConfigFlags(args []string, out io.Writer) (*configFlags, []string, error) {
	f := &configFlags{}
	fs := newFlagSet("config", printConfigUsage, out)
	addCommonFlags(fs, &f.common)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
