// Package sample fetches and decodes the bounded byte sample that dialect
// and schema guessing run over.
//
// Sampling must be bounded in memory and time: sources can be arbitrarily
// large, so only the first MaxBytes are read, and the possibly cut-off final
// line is dropped before the sample reaches the guesser. Fetching goes
// through an overridable seam so tests never touch real I/O.
package sample

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultMaxBytes is the sample size used when the caller does not set one.
const DefaultMaxBytes = 32 * 1024

// Config bounds one sample fetch.
type Config struct {
	// URL of the source: http(s)://, file://, or a bare filesystem path.
	URL string
	// MaxBytes to sample from the start of the source; DefaultMaxBytes when
	// zero or negative.
	MaxBytes int
	// Charset of the raw bytes, by WHATWG encoding name ("utf-8",
	// "windows-1252", "shift_jis", ...). Empty means UTF-8.
	Charset string
	// AllowInsecureTLS skips TLS certificate verification for HTTPS
	// sources (self-signed or internal endpoints).
	AllowInsecureTLS bool
}

// PeekFn is the overridable seam used to fetch the first n bytes of a URL.
type PeekFn func(ctx context.Context, url string, n int, insecure bool) ([]byte, error)

// peekFn is backed by the local filesystem for file:// URLs and bare paths,
// and by net/http otherwise. Tests replace it to avoid real I/O.
var peekFn PeekFn = peek

func peek(ctx context.Context, url string, n int, insecure bool) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("peek: n must be > 0")
	}
	switch {
	case strings.HasPrefix(url, "file://"):
		return peekFile(strings.TrimPrefix(url, "file://"), n)
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return peekHTTP(ctx, url, n, insecure)
	default:
		return peekFile(url, n)
	}
}

func peekFile(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("peek: %w", err)
	}
	defer f.Close()

	lr := &io.LimitedReader{R: f, N: int64(n)}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, lr); err != nil {
		return nil, fmt.Errorf("peek %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

func peekHTTP(ctx context.Context, url string, n int, insecure bool) ([]byte, error) {
	tr := &http.Transport{}
	if insecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	client := &http.Client{Transport: tr, Timeout: 30 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("peek %s: %w", url, err)
	}
	// Advisory; servers that ignore Range are cut off by the bounded read.
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", n-1))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("peek %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("peek %s: unexpected status %s", url, resp.Status)
	}

	lr := &io.LimitedReader{R: resp.Body, N: int64(n)}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, lr); err != nil {
		return nil, fmt.Errorf("peek %s: %w", url, err)
	}
	return buf.Bytes(), nil
}

// Fetch returns up to cfg.MaxBytes raw bytes and whether the read hit its
// byte bound, meaning the sample likely ends mid-line.
func Fetch(ctx context.Context, cfg Config) (raw []byte, truncated bool, err error) {
	n := cfg.MaxBytes
	if n <= 0 {
		n = DefaultMaxBytes
	}
	raw, err = peekFn(ctx, cfg.URL, n, cfg.AllowInsecureTLS)
	if err != nil {
		return nil, false, err
	}
	return raw, len(raw) >= n, nil
}

// Lines fetches, decodes, and splits the sample in one call.
func Lines(ctx context.Context, cfg Config) ([]string, error) {
	raw, truncated, err := Fetch(ctx, cfg)
	if err != nil {
		return nil, err
	}
	text, err := Decode(raw, cfg.Charset)
	if err != nil {
		return nil, err
	}
	return SplitLines(text, truncated), nil
}
