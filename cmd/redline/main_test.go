package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/redline-go/internal/adapters/loader"
	"github.com/0xcro3dile/redline-go/internal/domain/entities"
	"github.com/0xcro3dile/redline-go/internal/domain/usecases"
)

const reportJSON = `{
  "executiveSummary": {"topRisks": [
    {"title": "Lapsed insurance", "severity": "low", "impact": "Renewal needed", "remediable": true},
    {"title": "Change of control", "severity": "High", "impact": "Customer may terminate", "remediable": false}
  ]},
  "detailedFindings": [{"risk": "Change of control", "documents": ["msa.txt"], "references": "MSA s.14.2", "reasoning": "Assignment on CoC requires consent"}],
  "amendmentResolution": [{"contract": "MSA", "originalClause": "Net 30", "amendingDocument": "Amendment 1", "finalPosition": "Net 60"}],
  "questionsForCounsel": ["Has consent been requested?"]
}`

// fakeGemini answers every generateContent call with reportJSON.
func fakeGemini(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": reportJSON}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

// writeConfig points the Gemini adapter at baseURL; extra is appended verbatim.
func writeConfig(t *testing.T, baseURL, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "redline.yaml")
	content := fmt.Sprintf(`gemini:
  api_key: test-key
  base_url: %s
  api_version: v1beta
logging:
  level: error
%s`, baseURL, extra)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// resetFlags undoes flag state left on the package-level commands by
// earlier executions.
func resetFlags() {
	analyzeFormat, analyzeOut, analyzeTUI = "text", "", false
	watchOut, watchFormats, watchDebounce = "", nil, usecases.DefaultDebounce
	for _, cmd := range []*cobra.Command{analyzeCmd, watchCmd} {
		for _, name := range []string{"format", "out", "tui", "formats", "debounce"} {
			if f := cmd.Flags().Lookup(name); f != nil {
				f.Changed = false
			}
		}
	}
}

// prepare clears the environment and flag state before a command runs.
func prepare(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("VITE_GEMINI_API_KEY", "")
	t.Setenv("REDLINE_MODEL", "")
	resetFlags()
}

func run(ctx context.Context, configPath string, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", configPath))
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func executeWithConfig(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	prepare(t)
	return run(context.Background(), configPath, args...)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithConfig(t, filepath.Join(t.TempDir(), "none.yaml"), args...)
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// extensions lists the file extensions in dir, sorted; a missing dir is empty.
func extensions(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var exts []string
	for _, e := range entries {
		exts = append(exts, strings.TrimPrefix(filepath.Ext(e.Name()), "."))
	}
	sort.Strings(exts)
	return exts
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "redline dev")
	assert.Contains(t, out, "gemini-3-pro-preview")
}

func TestAnalyze_RejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "analyze", "--format", "pdf", "missing.txt")
	assert.ErrorContains(t, err, `unknown --format "pdf"`)
}

func TestAnalyze_MissingAPIKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msa.txt")
	require.NoError(t, os.WriteFile(path, []byte("agreement"), 0o644))

	_, err := execute(t, "analyze", "--format", "json", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API Key is missing")
	assert.Contains(t, err.Error(), "Please check your API key and try again")
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.exe"), []byte("x"), 0o644))
	single := filepath.Join(t.TempDir(), "loi.txt")
	require.NoError(t, os.WriteFile(single, []byte("loi"), 0o644))

	l := loader.NewFileLoader(0)
	paths, err := expandPaths(l, []string{single, dir})
	require.NoError(t, err)
	assert.Equal(t, []string{single, filepath.Join(dir, "a.pdf"), filepath.Join(dir, "b.txt")}, paths)

	_, err = expandPaths(l, []string{t.TempDir()})
	assert.ErrorIs(t, err, usecases.ErrNoFiles)

	_, err = expandPaths(l, []string{filepath.Join(dir, "nope.txt")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDisplayAddr(t *testing.T) {
	assert.Equal(t, "localhost:8080", displayAddr(":8080"))
	assert.Equal(t, "127.0.0.1:9000", displayAddr("127.0.0.1:9000"))
}

func TestAnalyze_JSONOutput(t *testing.T) {
	server, calls := fakeGemini(t)
	configPath := writeConfig(t, server.URL, "")
	doc := writeDoc(t, t.TempDir(), "msa.txt", "Master services agreement")

	out, err := executeWithConfig(t, configPath, "analyze", "--format", "json", doc)
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())

	var report entities.DiligenceReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.ExecutiveSummary.TopRisks, 2)
	assert.Equal(t, entities.SeverityLow, report.ExecutiveSummary.TopRisks[0].Severity)
	assert.Equal(t, "Net 60", report.AmendmentResolution[0].FinalPosition)
}

func TestAnalyze_MarkdownOutput(t *testing.T) {
	server, _ := fakeGemini(t)
	configPath := writeConfig(t, server.URL, "")
	dir := t.TempDir()
	writeDoc(t, dir, "msa.txt", "Master services agreement")
	writeDoc(t, dir, "amendment.md", "Amendment 1")

	out, err := executeWithConfig(t, configPath, "analyze", "--format", "md", dir)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# RedLineAI Diligence Report"), out)
	assert.Contains(t, out, "- **Critical Risks:** 1 (Deal-Breakers)")
	assert.Less(t, strings.Index(out, "[Critical Risk] Change of control"), strings.Index(out, "[Minor Issue] Lapsed insurance"))
	assert.Contains(t, out, "1. Has consent been requested?")
}

func TestAnalyze_TextOutput(t *testing.T) {
	server, _ := fakeGemini(t)
	configPath := writeConfig(t, server.URL, "")
	doc := writeDoc(t, t.TempDir(), "msa.txt", "Master services agreement")

	out, err := executeWithConfig(t, configPath, "analyze", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "Executive Summary")
	assert.Contains(t, out, "Change of control")
	assert.NotContains(t, out, `"executiveSummary"`)
}

func TestAnalyze_WritesEveryFormatToOut(t *testing.T) {
	server, _ := fakeGemini(t)
	configPath := writeConfig(t, server.URL, "")
	doc := writeDoc(t, t.TempDir(), "msa.txt", "Master services agreement")
	outDir := filepath.Join(t.TempDir(), "reports")

	_, err := executeWithConfig(t, configPath, "analyze", "--format", "json", "--out", outDir, doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"csv", "html", "json", "md"}, extensions(outDir))

	matches, err := filepath.Glob(filepath.Join(outDir, "redline-*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Net 60")
}

func TestWatch_FlagsOverrideConfig(t *testing.T) {
	server, calls := fakeGemini(t)
	configDir := filepath.Join(t.TempDir(), "from-config")
	configPath := writeConfig(t, server.URL, fmt.Sprintf(`watch:
  output_dir: %s
  formats: [json]
`, configDir))

	dataroom := t.TempDir()
	writeDoc(t, dataroom, "msa.txt", "Master services agreement")
	outDir := filepath.Join(t.TempDir(), "reports")

	prepare(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := run(ctx, configPath,
			"watch", "--out", outDir, "--formats", "csv,html", "--debounce", "50ms", dataroom)
		done <- result{out, err}
	}()

	require.Eventually(t, func() bool { return len(extensions(outDir)) == 2 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"csv", "html"}, extensions(outDir))
	assert.Empty(t, extensions(configDir), "--out replaces watch.output_dir")

	// unsupported files are ignored by the watcher; supported ones trigger a re-run
	writeDoc(t, dataroom, "setup.exe", "binary")
	time.Sleep(200 * time.Millisecond)
	assert.EqualValues(t, 1, calls.Load())

	writeDoc(t, dataroom, "amendment.txt", "Amendment 1")
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Contains(t, res.out, "1 critical, 0 material, 1 minor -> "+outDir)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_RejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "watch", "--formats", "pdf", t.TempDir())
	assert.ErrorContains(t, err, `unknown output format "pdf"`)
}
