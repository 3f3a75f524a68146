// Command guess infers the CSV dialect and column schema of a dataset by
// sampling a bounded prefix of it.
//
// It reads up to -bytes bytes from the source (default 32KB), runs the
// heuristics, and emits a mergeable parser configuration fragment as JSON on
// stdout:
//
//	{
//	  "parser": {
//	    "type": "csv",
//	    "delimiter": ",",
//	    "quote": "\"",
//	    ...
//	    "columns": [{"name": "id", "type": "long"}, ...]
//	  }
//	}
//
// Sources may be http:// or https:// URLs, file:// URLs, or bare local
// paths. Non-UTF-8 sources are decoded with -charset (WHATWG encoding
// names, e.g. "windows-1252", "shift_jis"). With -html-table the source is
// treated as an HTML page and the first <table> is flattened to
// tab-separated lines before guessing.
//
// Output modes
//
//   - Default mode: prints the JSON fragment to stdout.
//   - Report mode (-report): prints a human-readable dialect and schema
//     summary and suppresses JSON output, which keeps interactive use and
//     shell pipelines readable.
//
// A base configuration file (-base, JSON) supplies overrides: any dialect
// field already present under its "parser" section is taken as-is and the
// corresponding heuristic is skipped. Setting a field to null disables the
// feature (e.g. "quote": null turns quoting off).
//
// With -dd-metrics, run counters and durations are buffered and submitted
// to Datadog (credentials via the standard DD_API_KEY / DD_APP_KEY
// environment variables).
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"csvguess/internal/config"
	"csvguess/internal/guess"
	"csvguess/internal/metrics"
	"csvguess/internal/metrics/datadog"
	"csvguess/internal/sample"
	"csvguess/internal/schema"
)

func main() {
	var (
		// flagURL is the URL or local filesystem path of the dataset.
		flagURL = flag.String("url", "", "URL or path of the source file")

		// flagBytes controls how many bytes are sampled from the start of the
		// input. Larger samples improve inference quality at the cost of a
		// slightly slower probe.
		flagBytes = flag.Int("bytes", sample.DefaultMaxBytes, "Number of bytes to sample from the start of the file")

		// flagCharset names the source encoding. Empty means UTF-8.
		flagCharset = flag.String("charset", "", `Source charset by WHATWG name (e.g. "windows-1252"); empty means UTF-8`)

		// flagBase optionally points at a JSON file whose "parser" section
		// supplies dialect overrides.
		flagBase = flag.String("base", "", "Path of a base JSON config; its parser fields override the heuristics")

		// flagHTMLTable switches the sampler to HTML mode: the first <table>
		// in the page is flattened to tab-separated lines.
		flagHTMLTable = flag.Bool("html-table", false, "Treat the source as HTML and guess over its first <table>")

		// flagSave optionally writes the raw sampled bytes to a local file,
		// handy for reproducing a guess offline.
		flagSave = flag.String("save", "", "Write the raw sampled bytes to this path")

		// flagPretty controls JSON indentation. Ignored in report mode.
		flagPretty = flag.Bool("pretty", true, "Pretty-print JSON output")

		// flagReport enables report mode: a human-readable summary instead of
		// the JSON fragment.
		flagReport = flag.Bool("report", false, "Print a dialect/schema report (suppresses JSON output)")

		// flagAllowInsecure skips TLS verification for HTTPS sources with
		// self-signed certs. Prefer false outside internal endpoints.
		flagAllowInsecure = flag.Bool("allow-insecure", false, "Allow insecure TLS")

		// flagDDMetrics enables the Datadog metrics backend for this run.
		flagDDMetrics = flag.Bool("dd-metrics", false, "Submit run metrics to Datadog (needs DD_API_KEY)")

		// flagDDTags adds extra Datadog tags, comma-separated ("k:v,k2:v2").
		flagDDTags = flag.String("dd-tags", "", "Extra Datadog tags, comma-separated")

		// flagDDJob overrides the job tag on submitted metrics.
		flagDDJob = flag.String("dd-job", "", `Datadog job tag; defaults to "csvguess"`)
	)
	flag.Parse()

	if strings.TrimSpace(*flagURL) == "" {
		fmt.Fprintln(os.Stderr, "missing -url")
		flag.Usage()
		os.Exit(2)
	}

	// Bound the whole run. Sampling a slow or unreachable source should fail
	// quickly rather than hang.
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	base := config.Options{}
	if *flagBase != "" {
		var err error
		base, err = config.LoadFile(*flagBase)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	var backend metrics.Backend = metrics.Nop{}
	if *flagDDMetrics {
		dd, err := datadog.NewBackend(ctx, datadog.Options{
			JobName: *flagDDJob,
			Tags:    datadog.ParseTagsCSV(*flagDDTags),
		})
		if err != nil {
			log.Fatalf("datadog: %v", err)
		}
		defer func() {
			if err := dd.Close(); err != nil {
				log.Printf("datadog flush: %v", err)
			}
		}()
		backend = dd
	}

	lines, err := sampleLines(ctx, sample.Config{
		URL:              *flagURL,
		MaxBytes:         *flagBytes,
		Charset:          *flagCharset,
		AllowInsecureTLS: *flagAllowInsecure,
	}, *flagHTMLTable, *flagSave)
	if err != nil {
		log.Fatalf("sample: %v", err)
	}

	g := guess.New()
	g.Metrics = backend
	g.Warn = func(line int, err error) {
		log.Printf("sample line %d: %v", line, err)
	}

	diff, err := g.Guess(base, lines)
	if err != nil {
		log.Fatalf("guess: %v", err)
	}

	if *flagReport {
		fmt.Fprint(os.Stdout, renderReport(diff))
		return
	}

	enc := json.NewEncoder(os.Stdout)
	if *flagPretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(diff); err != nil {
		log.Fatalf("encode fragment: %v", err)
	}
}

// sampleLines fetches, optionally saves, decodes, and splits the sample.
//
// The save step works on the raw bytes, before any charset decoding, so the
// saved file reproduces the source exactly.
func sampleLines(ctx context.Context, cfg sample.Config, htmlTable bool, savePath string) ([]string, error) {
	raw, truncated, err := sample.Fetch(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if savePath != "" {
		if err := os.WriteFile(savePath, raw, 0o644); err != nil {
			return nil, fmt.Errorf("save sample: %w", err)
		}
	}
	if htmlTable {
		return sample.TableLines(bytes.NewReader(raw))
	}
	text, err := sample.Decode(raw, cfg.Charset)
	if err != nil {
		return nil, err
	}
	return sample.SplitLines(text, truncated), nil
}

// renderReport formats a guessed fragment for humans. Scripts should parse
// the JSON mode instead; this output is free to change.
func renderReport(diff config.Diff) string {
	parser := diff.Nested("parser")
	if parser.IsEmpty() {
		return "guess: no usable rows sampled\n"
	}
	o := parser.Options()

	var b strings.Builder
	fmt.Fprintf(&b, "delimiter:          %q\n", o.String("delimiter", ""))
	fmt.Fprintf(&b, "quote:              %s\n", reportChar(parser, "quote"))
	fmt.Fprintf(&b, "escape:             %s\n", reportChar(parser, "escape"))
	if parser.Has("null_string") {
		fmt.Fprintf(&b, "null_string:        %q\n", o.String("null_string", ""))
	}
	if parser.Has("comment_line_marker") {
		fmt.Fprintf(&b, "comment_marker:     %q\n", o.String("comment_line_marker", ""))
	}
	fmt.Fprintf(&b, "skip_header_lines:  %d\n", o.Int("skip_header_lines", 0))
	fmt.Fprintf(&b, "trim_if_not_quoted: %t\n", o.Bool("trim_if_not_quoted", false))

	if columns, ok := parser.Get("columns").(schema.Schema); ok {
		fmt.Fprintf(&b, "columns (%d):\n", len(columns))
		for _, c := range columns {
			fmt.Fprintf(&b, "  %-24s %s\n", c.Name, c.Type)
		}
	}
	return b.String()
}

func reportChar(parser config.Diff, key string) string {
	if !parser.Has(key) || parser.Get(key) == nil {
		return "(none)"
	}
	return fmt.Sprintf("%q", parser.Options().String(key, ""))
}
