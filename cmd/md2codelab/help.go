package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2codelab <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve      Run the conversion web service")
	fmt.Fprintln(w, "  convert    Convert one Markdown file or URL to a codelab page")
	fmt.Fprintln(w, "  config     Print the effective configuration as YAML")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'md2codelab help <command>' for details on a specific command.")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2codelab serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve the converter: a submission form at /, conversions at /convert,")
	fmt.Fprintln(w, "cached pages at /view/<id>, the history at /views and a probe at /health.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default localhost:8080)")
	fmt.Fprintln(w, "      --db <path>           SQLite database path (default codelabs.db)")
	fmt.Fprintln(w, "      --views-limit <n>     Rows on the /views page (default 50)")
	fmt.Fprintln(w, "      --date-format <s>     /views timestamps: preset or tokens")
	fmt.Fprintln(w, "                            Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D, HH, mm, ss")
	fmt.Fprintln(w, "                            Presets (case-insensitive): iso, date, european, us, long")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom styles/, scripts/, templates/")
	fmt.Fprintln(w)
	printFetchUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Logging:")
	fmt.Fprintln(w, "      --log-level <s>       trace, debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      console, json, pretty")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2codelab convert <file|url|-> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert a Markdown document to a self-contained codelab HTML page.")
	fmt.Fprintln(w, "Every \"## \" heading starts a step. Use - to read from stdin.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output HTML file (default: stdout)")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom styles/, scripts/, templates/")
	fmt.Fprintln(w, "      --no-line-breaks      Keep soft line breaks as spaces")
	fmt.Fprintln(w, "      --no-tables           Disable GitHub-flavored tables")
	fmt.Fprintln(w)
	printFetchUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2codelab config [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the configuration serve would use, after applying the config")
	fmt.Fprintln(w, "file and CODELAB_* environment variables.")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

func printFetchUsage(w io.Writer) {
	fmt.Fprintln(w, "Sources:")
	fmt.Fprintln(w, "      --allowed-prefix <s>  Accepted source URL prefix")
	fmt.Fprintln(w, "  -t, --fetch-timeout <d>   Fetch timeout (e.g., 10s, 1m)")
	fmt.Fprintln(w, "      --user-agent <s>      User-Agent sent when fetching")
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "General:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed progress")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment: CODELAB_CONFIG, CODELAB_ADDR, CODELAB_DB, CODELAB_ALLOWED_PREFIX,")
	fmt.Fprintln(w, "CODELAB_FETCH_TIMEOUT, CODELAB_USER_AGENT, CODELAB_LOG_LEVEL, CODELAB_LOG_FORMAT,")
	fmt.Fprintln(w, "CODELAB_ASSET_PATH, CODELAB_VIEWS_LIMIT. Flags win over environment, which wins")
	fmt.Fprintln(w, "over the config file.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "serve":
		printServeUsage(env.Stdout)
	case "convert":
		printConvertUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: md2codelab version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: md2codelab help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
