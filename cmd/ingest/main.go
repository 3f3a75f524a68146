// Command ingest guesses a dataset's dialect and schema, then loads the
// sampled rows into a relational backend.
//
// It is the end-to-end companion to cmd/guess: the same bounded sample the
// heuristics ran on is tokenized under the guessed dialect, the target table
// is created when missing (one column per guessed column, backend-native
// types), and the rows are bulk-inserted. That makes it convenient for
// smoke-testing a guess against a real database without writing a loader.
//
// Column and table names are normalized into safe SQL identifiers (lowered,
// separators collapsed to underscores); duplicate names after normalization
// get a numeric suffix.
//
// # DSN resolution
//
// The target database is selected with -backend ("postgres", "mssql",
// "sqlite") and located via, in strict precedence order:
//
//  1. -dsn "<dsn>"                    (highest priority)
//  2. DSN="<dsn>"                     (full DSN via env var)
//  3. DSN_HOST / DSN_PORT / DSN_USER / DSN_PASSWORD / DSN_DB
//     plus optional backend knobs:
//     - Postgres: DSN_SSLMODE (default "disable")
//     - MSSQL:    DSN_ENCRYPT (default "disable")
//     - SQLite:   DSN_SQLITE  (path or full DSN)
//
// Component env vars make the command easy to point at Docker Compose or CI
// databases without assembling DSN strings by hand.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"csvguess/internal/config"
	"csvguess/internal/guess"
	"csvguess/internal/metrics"
	"csvguess/internal/metrics/datadog"
	"csvguess/internal/sample"
	"csvguess/internal/schema"
	"csvguess/internal/storage"
	_ "csvguess/internal/storage/all"
)

func main() {
	var (
		// flagURL is the URL or local filesystem path of the dataset.
		flagURL = flag.String("url", "", "URL or path of the source file")

		// flagBytes bounds the sample read from the start of the input. The
		// ingested rows come from this same sample.
		flagBytes = flag.Int("bytes", sample.DefaultMaxBytes, "Number of bytes to sample from the start of the file")

		// flagCharset names the source encoding. Empty means UTF-8.
		flagCharset = flag.String("charset", "", `Source charset by WHATWG name; empty means UTF-8`)

		// flagBase optionally points at a JSON file whose "parser" section
		// supplies dialect overrides.
		flagBase = flag.String("base", "", "Path of a base JSON config; its parser fields override the heuristics")

		// flagBackend selects the storage backend kind.
		flagBackend = flag.String("backend", "sqlite", "Storage backend: "+strings.Join(storage.Kinds(), "|"))

		// flagDSN overrides the storage DSN; highest precedence.
		flagDSN = flag.String("dsn", "", "Storage DSN (highest priority; see package doc for env fallbacks)")

		// flagTable names the target table. When empty, it is derived from
		// the last path segment of -url.
		flagTable = flag.String("table", "", "Target table name; defaults to the normalized source file name")

		// flagAllowInsecure skips TLS verification for HTTPS sources.
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

	backendKind := strings.ToLower(strings.TrimSpace(*flagBackend))
	dsn, err := resolveDSN(backendKind, strings.TrimSpace(*flagDSN))
	if err != nil {
		log.Fatalf("dsn: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	base := config.Options{}
	if *flagBase != "" {
		base, err = config.LoadFile(*flagBase)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	var mb metrics.Backend = metrics.Nop{}
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
		mb = dd
	}

	lines, err := sample.Lines(ctx, sample.Config{
		URL:              *flagURL,
		MaxBytes:         *flagBytes,
		Charset:          *flagCharset,
		AllowInsecureTLS: *flagAllowInsecure,
	})
	if err != nil {
		log.Fatalf("sample: %v", err)
	}

	g := guess.New()
	g.Metrics = mb
	g.Warn = func(line int, err error) {
		log.Printf("sample line %d: %v", line, err)
	}

	diff, err := g.Guess(base, lines)
	if err != nil {
		log.Fatalf("guess: %v", err)
	}
	parser := diff.Nested("parser")
	columns, _ := parser.Get("columns").(schema.Schema)
	if len(columns) == 0 {
		log.Fatalf("guess: no usable rows or columns in sample")
	}
	columns = normalizeColumns(columns)

	table := strings.TrimSpace(*flagTable)
	if table == "" {
		table = defaultTableName(*flagURL)
	}

	records := g.TokenizeSample(parser, lines)
	rows := make([][]*string, len(records))
	for i, rec := range records {
		rows[i] = rec.Values()
	}

	repo, err := storage.New(ctx, storage.Config{Kind: backendKind, DSN: dsn})
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer repo.Close()

	if err := repo.EnsureTable(ctx, table, columns); err != nil {
		log.Fatalf("ensure table: %v", err)
	}

	start := time.Now()
	n, err := repo.InsertRows(ctx, table, columns, rows)
	if err != nil {
		log.Fatalf("insert: %v", err)
	}
	mb.IncCounter("ingest_rows_total", float64(n), metrics.Labels{"backend": backendKind})
	mb.IncCounter("ingest_batches_total", 1, nil)
	mb.ObserveHistogram("ingest_duration_seconds", time.Since(start).Seconds(), metrics.Labels{"backend": backendKind})

	log.Printf("ingested %d rows into %s (%s)", n, table, backendKind)
}

// normalizeColumns maps guessed header names onto safe SQL identifiers and
// disambiguates collisions with a numeric suffix ("code", "code_2", ...).
func normalizeColumns(columns schema.Schema) schema.Schema {
	out := make(schema.Schema, len(columns))
	seen := make(map[string]int, len(columns))
	for i, c := range columns {
		name := storage.NormalizeName(c.Name)
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		out[i] = schema.Column{Name: name, Type: c.Type}
	}
	return out
}

// defaultTableName derives a table name from the last path segment of the
// source URL, extension stripped.
func defaultTableName(source string) string {
	p := source
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		p = u.Path
	}
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	return storage.NormalizeName(base)
}

// resolveDSN determines the storage DSN for the selected backend.
//
// Precedence order (highest wins):
//
//  1. -dsn flag
//  2. DSN environment variable (full DSN string)
//  3. Component env vars DSN_HOST / DSN_PORT / DSN_USER / DSN_PASSWORD /
//     DSN_DB plus backend-specific knobs, with development-friendly
//     defaults per component.
//
// SQLite never needs a server, so with nothing configured it falls back to
// a local file next to the working directory.
func resolveDSN(backend, flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}
	if v := strings.TrimSpace(os.Getenv("DSN")); v != "" {
		return v, nil
	}

	host := strings.TrimSpace(os.Getenv("DSN_HOST"))
	port := strings.TrimSpace(os.Getenv("DSN_PORT"))
	user := strings.TrimSpace(os.Getenv("DSN_USER"))
	pass := os.Getenv("DSN_PASSWORD") // allow spaces
	db := strings.TrimSpace(os.Getenv("DSN_DB"))

	switch backend {
	case "postgres":
		return buildServerDSN("postgresql", host, "postgres", port, "5432", user, pass, db,
			url.Values{"sslmode": []string{envDefault("DSN_SSLMODE", "disable")}}, "/"), nil
	case "mssql":
		return buildServerDSN("sqlserver", host, "mssql", port, "1433", user, pass, db,
			url.Values{"encrypt": []string{envDefault("DSN_ENCRYPT", "disable")}}, "query"), nil
	case "sqlite":
		p := strings.TrimSpace(os.Getenv("DSN_SQLITE"))
		if p == "" {
			p = "csvguess.db"
		}
		return p, nil
	default:
		return "", fmt.Errorf("unsupported backend %q (have: %s)", backend, strings.Join(storage.Kinds(), ", "))
	}
}

// buildServerDSN assembles a URL-form DSN for server backends. dbPlacement
// is "/" for path-style databases (postgres) or "query" for
// database=<name> query placement (sqlserver).
func buildServerDSN(scheme, host, defHost, port, defPort, user, pass, db string, params url.Values, dbPlacement string) string {
	if host == "" {
		host = defHost
	}
	if port == "" {
		port = defPort
	}
	if user == "" {
		user = "user"
	}
	if pass == "" {
		pass = "password"
	}
	if db == "" {
		db = "testdb"
	}

	u := &url.URL{
		Scheme: scheme,
		User:   url.UserPassword(user, pass),
		Host:   host + ":" + port,
	}
	if dbPlacement == "/" {
		u.Path = "/" + db
	} else {
		params.Set("database", db)
	}
	u.RawQuery = params.Encode()
	return u.String()
}

func envDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
