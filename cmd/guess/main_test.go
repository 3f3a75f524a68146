package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestHelperProcess is a subprocess entrypoint used by tests.
//
// The parent test re-invokes the current test binary with
// -test.run=TestHelperProcess and GO_WANT_HELPER_PROCESS=1; arguments after a
// literal "--" become CLI args for the command. This lets tests run main()
// and observe exit codes and output without terminating "go test".
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	i := 0
	for ; i < len(args); i++ {
		if args[i] == "--" {
			break
		}
	}
	if i < len(args) {
		os.Args = append([]string{args[0]}, args[i+1:]...)
	} else {
		os.Args = []string{args[0]}
	}

	main()
	os.Exit(0)
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	cmdArgs := []string{"-test.run=TestHelperProcess", "--"}
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.Command(os.Args[0], cmdArgs...)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()

	if err == nil {
		return stdout, stderr, 0
	}
	if ee, ok := err.(*exec.ExitError); ok {
		return stdout, stderr, ee.ExitCode()
	}
	t.Fatalf("unexpected run error: %T: %v", err, err)
	return "", "", 1
}

func writeSampleCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.csv")
	csv := strings.Join([]string{
		"id,name,price",
		"1,widget,9.50",
		"2,gadget,12.00",
		"3,sprocket,0.25",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(csv), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestMain_DefaultMode_EmitsParserFragment(t *testing.T) {
	t.Parallel()

	stdout, stderr, code := runCmd(t, "-url", writeSampleCSV(t))
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr:\n%s\nstdout:\n%s", code, stderr, stdout)
	}

	var out struct {
		Parser struct {
			Type            string `json:"type"`
			Delimiter       string `json:"delimiter"`
			Quote           string `json:"quote"`
			SkipHeaderLines int    `json:"skip_header_lines"`
			Columns         []struct {
				Name string `json:"name"`
				Type string `json:"type"`
			} `json:"columns"`
		} `json:"parser"`
	}
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("stdout is not valid JSON: %v\nstdout:\n%s", err, stdout)
	}
	if out.Parser.Type != "csv" || out.Parser.Delimiter != "," {
		t.Errorf("parser = %+v", out.Parser)
	}
	if out.Parser.SkipHeaderLines != 1 {
		t.Errorf("skip_header_lines = %d, want 1", out.Parser.SkipHeaderLines)
	}
	want := []struct{ name, typ string }{{"id", "long"}, {"name", "string"}, {"price", "double"}}
	if len(out.Parser.Columns) != len(want) {
		t.Fatalf("columns = %+v", out.Parser.Columns)
	}
	for i, w := range want {
		if out.Parser.Columns[i].Name != w.name || out.Parser.Columns[i].Type != w.typ {
			t.Errorf("column %d = %+v, want %+v", i, out.Parser.Columns[i], w)
		}
	}
}

func TestMain_ReportMode_SuppressesJSON(t *testing.T) {
	t.Parallel()

	stdout, stderr, code := runCmd(t, "-url", writeSampleCSV(t), "-report=true")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr:\n%s\nstdout:\n%s", code, stderr, stdout)
	}
	if !strings.Contains(stdout, "delimiter:") || !strings.Contains(stdout, "columns (3):") {
		t.Fatalf("expected report text, got:\n%s", stdout)
	}
	if strings.Contains(stdout, "{") {
		t.Fatalf("expected report-only output (no JSON), got:\n%s", stdout)
	}
}

func TestMain_HTMLTableMode(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "page.html")
	html := `<html><body><table>
<tr><th>code</th><th>count</th></tr>
<tr><td>aa</td><td>1</td></tr>
<tr><td>bb</td><td>2</td></tr>
</table></body></html>`
	if err := os.WriteFile(path, []byte(html), 0o600); err != nil {
		t.Fatalf("write html: %v", err)
	}

	stdout, stderr, code := runCmd(t, "-url", path, "-html-table=true")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr:\n%s\nstdout:\n%s", code, stderr, stdout)
	}
	var out map[string]map[string]any
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("stdout is not valid JSON: %v\nstdout:\n%s", err, stdout)
	}
	if out["parser"]["delimiter"] != "\t" {
		t.Errorf("delimiter = %q, want tab", out["parser"]["delimiter"])
	}
}

func TestMain_SaveWritesRawSample(t *testing.T) {
	t.Parallel()

	src := writeSampleCSV(t)
	saved := filepath.Join(t.TempDir(), "copy.csv")

	_, stderr, code := runCmd(t, "-url", src, "-save", saved)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr:\n%s", code, stderr)
	}

	want, _ := os.ReadFile(src)
	got, err := os.ReadFile(saved)
	if err != nil {
		t.Fatalf("read saved sample: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("saved sample differs from source")
	}
}

func TestMain_MissingURL_ExitsWith2(t *testing.T) {
	t.Parallel()

	stdout, stderr, code := runCmd(t)
	if code != 2 {
		t.Fatalf("expected exit code 2, got %d\nstderr:\n%s\nstdout:\n%s", code, stderr, stdout)
	}
	if !strings.Contains(stderr, "missing -url") {
		t.Fatalf("expected missing -url message on stderr, got:\n%s", stderr)
	}
}
