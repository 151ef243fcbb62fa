package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-triage/internal/duckdb"
)

var sampleVCF = filepath.Join("..", "..", "testdata", "triage_sample.vcf")

// execute runs the root command with a fresh viper state and an empty home
// directory.
func execute(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Setenv("HOME", home)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func newVariationAPI(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		if strings.Trim(r.URL.Path, "/") == "NC_000017.11:43093267:G:A" {
			w.Write([]byte(`{"clinical_significance":{"description":"Pathogenic"}}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRun_EndToEnd(t *testing.T) {
	home := t.TempDir()
	dir := t.TempDir()
	srv, calls := newVariationAPI(t, http.StatusOK)

	cachePath := filepath.Join(dir, "clinvar_cache.json")
	variantsPath := filepath.Join(dir, "out", "variants.json")
	statsPath := filepath.Join(dir, "out", "analysis_results.json")
	dbPath := filepath.Join(dir, "triage.duckdb")
	tablePath := filepath.Join(dir, "listing.tsv")

	args := []string{"run",
		"--cache", cachePath,
		"--base-url", srv.URL,
		"--rate-interval", "1ms",
		"--variants-out", variantsPath,
		"--stats-out", statsPath,
		"--duckdb", dbPath,
		"--table", tablePath,
		sampleVCF,
	}

	out, err := execute(t, home, args...)
	require.NoError(t, err)

	assert.Contains(t, out, "Total Variants: 4\n")
	assert.Contains(t, out, "SNPs: 3 (75.0%)\n")
	assert.Contains(t, out, "Indels: 1 (25.0%)\n")
	assert.Contains(t, out, "Most Common Chromosome: 17\n")
	assert.Contains(t, out, "  Not found in ClinVar: 2\n")
	assert.Contains(t, out, "  Pathogenic: 1\n")
	assert.Contains(t, out, "  Invalid format: 1\n")
	assert.EqualValues(t, 3, calls.Load())

	data, err := os.ReadFile(variantsPath)
	require.NoError(t, err)
	var listing []map[string]any
	require.NoError(t, json.Unmarshal(data, &listing))
	require.Len(t, listing, 4)
	assert.Equal(t, "Pathogenic", listing[0]["clinical_significance"])

	data, err = os.ReadFile(cachePath)
	require.NoError(t, err)
	var cached map[string]string
	require.NoError(t, json.Unmarshal(data, &cached))
	assert.Len(t, cached, 3)

	table, err := os.ReadFile(tablePath)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(table)), "\n"), 5)

	db, err := duckdb.Open(dbPath)
	require.NoError(t, err)
	n, err := db.VariantCount()
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	require.NoError(t, db.Close())

	// Cached answers survive an outage on the second run.
	down, downCalls := newVariationAPI(t, http.StatusServiceUnavailable)
	args[4] = down.URL
	out, err = execute(t, home, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "  Pathogenic: 1\n")
	assert.EqualValues(t, 0, downCalls.Load())
}

func TestRun_DuckDBCacheSharedWithExport(t *testing.T) {
	dir := t.TempDir()
	srv, _ := newVariationAPI(t, http.StatusOK)
	dbPath := filepath.Join(dir, "triage.duckdb")

	_, err := execute(t, t.TempDir(), "run",
		"--cache", dbPath,
		"--duckdb", dbPath,
		"--base-url", srv.URL,
		"--rate-interval", "1ms",
		"--variants-out", filepath.Join(dir, "variants.json"),
		"--stats-out", filepath.Join(dir, "stats.json"),
		sampleVCF)
	require.NoError(t, err)

	db, err := duckdb.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	labels, err := db.SignificanceCount()
	require.NoError(t, err)
	assert.EqualValues(t, 3, labels)

	n, err := db.VariantCount()
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestRun_DamagedDuckDBCacheStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	srv, calls := newVariationAPI(t, http.StatusOK)
	cachePath := filepath.Join(dir, "cache.duckdb")
	require.NoError(t, os.WriteFile(cachePath, []byte("garbage, not a cache"), 0644))

	out, err := execute(t, t.TempDir(), "run",
		"--cache", cachePath,
		"--base-url", srv.URL,
		"--rate-interval", "1ms",
		"--variants-out", filepath.Join(dir, "variants.json"),
		"--stats-out", filepath.Join(dir, "stats.json"),
		sampleVCF)
	require.NoError(t, err)
	assert.Contains(t, out, "Total Variants: 4\n")
	assert.EqualValues(t, 3, calls.Load())

	_, err = os.Stat(cachePath + duckdb.DamagedSuffix)
	assert.NoError(t, err)

	out, err = execute(t, t.TempDir(), "cache", "show", "--count", "--cache", cachePath)
	require.NoError(t, err)
	assert.Equal(t, "# 3 entries in "+cachePath+"\n", out)
}

func TestExportCommands(t *testing.T) {
	dir := t.TempDir()
	srv, _ := newVariationAPI(t, http.StatusOK)
	dbPath := filepath.Join(dir, "triage.duckdb")

	_, err := execute(t, t.TempDir(), "run",
		"--cache", filepath.Join(dir, "cache.json"),
		"--duckdb", dbPath,
		"--base-url", srv.URL,
		"--rate-interval", "1ms",
		"--variants-out", filepath.Join(dir, "variants.json"),
		"--stats-out", filepath.Join(dir, "stats.json"),
		sampleVCF)
	require.NoError(t, err)

	out, err := execute(t, t.TempDir(), "export", "show", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t,
		"Exported Variants: 4\n"+
			"  Not found in ClinVar: 2\n"+
			"  Invalid format: 1\n"+
			"  Pathogenic: 1\n",
		out)

	out, err = execute(t, t.TempDir(), "export", "lookup", "--db", dbPath, "17", "43093268")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "17\t43093268\tG\tA\tSNP\t0.5\t35\t50\tPathogenic", lines[1])

	_, err = execute(t, t.TempDir(), "export", "lookup", "--db", dbPath, "17", "1")
	assert.Error(t, err)

	_, err = execute(t, t.TempDir(), "export", "show")
	assert.Error(t, err)
}

func TestRun_MissingInput(t *testing.T) {
	_, err := execute(t, t.TempDir(), "run", filepath.Join(t.TempDir(), "missing.vcf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open input")
}

func TestTranslate(t *testing.T) {
	out, err := execute(t, t.TempDir(), "translate", "chr17", "43093268", "G", "A")
	require.NoError(t, err)
	assert.Equal(t, "NC_000017.11:43093267:G:A\n", out)

	_, err = execute(t, t.TempDir(), "translate", "26", "100", "A", "T")
	assert.Error(t, err)

	_, err = execute(t, t.TempDir(), "translate", "1", "zero", "A", "T")
	assert.Error(t, err)
}

func TestLookupAndCacheCommands(t *testing.T) {
	t.Setenv("VIBE_TRIAGE_RATELIMIT_MIN_INTERVAL", "1ms")
	home := t.TempDir()
	srv, calls := newVariationAPI(t, http.StatusOK)
	cachePath := filepath.Join(t.TempDir(), "cache.json")

	out, err := execute(t, home, "lookup",
		"--cache", cachePath,
		"--base-url", srv.URL,
		"NC_000017.11:43093267:G:A", "NC_000001.11:999:A:T")
	require.NoError(t, err)
	assert.Equal(t,
		"NC_000017.11:43093267:G:A\tPathogenic\nNC_000001.11:999:A:T\tNot found in ClinVar\n",
		out)
	assert.EqualValues(t, 2, calls.Load())

	out, err = execute(t, home, "cache", "show", "--cache", cachePath)
	require.NoError(t, err)
	assert.Equal(t,
		"NC_000001.11:999:A:T\tNot found in ClinVar\n"+
			"NC_000017.11:43093267:G:A\tPathogenic\n"+
			"# 2 entries in "+cachePath+"\n",
		out)

	_, err = execute(t, home, "cache", "clear", "--cache", cachePath)
	require.NoError(t, err)
	_, err = os.Stat(cachePath)
	assert.True(t, os.IsNotExist(err))

	out, err = execute(t, home, "cache", "show", "--count", "--cache", cachePath)
	require.NoError(t, err)
	assert.Equal(t, "# 0 entries in "+cachePath+"\n", out)
}

func TestConfigCommands(t *testing.T) {
	home := t.TempDir()

	out, err := execute(t, home, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "query_limit: 300")
	assert.Contains(t, out, "path: clinvar_cache.json")
	assert.Contains(t, out, "min_interval: 1s")

	out, err = execute(t, home, "config", "set", "pipeline.query_limit", "25")
	require.NoError(t, err)
	assert.Contains(t, out, "Set pipeline.query_limit = 25")

	data, err := os.ReadFile(filepath.Join(home, ".vibe-triage.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "query_limit: 25")

	out, err = execute(t, home, "config", "get", "pipeline.query_limit")
	require.NoError(t, err)
	assert.Equal(t, "25\n", out)

	_, err = execute(t, home, "config", "set", "no.such_key", "1")
	assert.Error(t, err)
}

func TestConfigSet_Durations(t *testing.T) {
	home := t.TempDir()

	_, err := execute(t, home, "config", "set", "ratelimit.min_interval", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")

	_, err = execute(t, home, "config", "set", "ratelimit.min_interval", "350ms")
	require.NoError(t, err)

	out, err := execute(t, home, "config", "get", "ratelimit.min_interval")
	require.NoError(t, err)
	assert.Equal(t, "350ms\n", out)

	assert.Equal(t, 350*time.Millisecond, viper.GetDuration("ratelimit.min_interval"))
}

func TestConfigFromEnvironment(t *testing.T) {
	t.Setenv("VIBE_TRIAGE_PIPELINE_OUTPUT_LIMIT", "7")

	out, err := execute(t, t.TempDir(), "config", "get", "pipeline.output_limit")
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, "vibe-triage version dev (none) built unknown\n", out)
}
