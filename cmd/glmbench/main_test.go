package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/glmbench/core/model"
	"github.com/YuminosukeSato/glmbench/pkg/errors"
	"github.com/YuminosukeSato/glmbench/pkg/log"
)

// execute runs the CLI with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	prevProvider := log.SetProvider(log.NewZerologProvider(io.Discard, log.LevelInfo))
	prevSlog := slog.Default()
	t.Cleanup(func() {
		log.SetProvider(prevProvider)
		slog.SetDefault(prevSlog)
		errors.SetZerologWarnFunc(nil)
	})

	cmd := newRootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func decodeRun(t *testing.T, out string) runOutput {
	t.Helper()
	var doc runOutput
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	return doc
}

func TestRun_FitSparse(t *testing.T) {
	out, err := execute(t, "run", "--library", "fitsparse", "--rows", "200", "--features", "4")
	require.NoError(t, err)

	doc := decodeRun(t, out)
	assert.False(t, doc.Skipped)
	assert.Equal(t, "fitsparse", doc.Library)
	assert.Len(t, doc.Coef, 4)
	assert.LessOrEqual(t, doc.NIter, 2)
}

func TestRun_ReportsInSampleMetrics(t *testing.T) {
	out, err := execute(t, "run", "--library", "fitsparse", "--rows", "200", "--features", "4")
	require.NoError(t, err)
	doc := decodeRun(t, out)
	require.Contains(t, doc.Metrics, "r2")
	assert.Greater(t, doc.Metrics["r2"], 0.5)
	assert.GreaterOrEqual(t, doc.Metrics["rmse"], doc.Metrics["mae"])

	out, err = execute(t, "run", "--library", "fitsparse", "--distribution", "poisson",
		"--rows", "200", "--features", "4")
	require.NoError(t, err)
	doc = decodeRun(t, out)
	require.Contains(t, doc.Metrics, "poisson_deviance")
	assert.NotContains(t, doc.Metrics, "r2")
	assert.Greater(t, doc.Metrics["poisson_deviance"], 0.0)
}

func TestRun_FitSparseSkipsSmallInput(t *testing.T) {
	out, err := execute(t, "run", "--library", "fitsparse", "--rows", "20", "--log-level", "error")
	require.NoError(t, err)

	doc := decodeRun(t, out)
	assert.True(t, doc.Skipped)
	assert.Contains(t, doc.Reason, "38")
	assert.Empty(t, doc.Coef)
	assert.Empty(t, doc.Metrics)
}

func TestRun_GLMWithWeights(t *testing.T) {
	out, err := execute(t, "run", "--library", "glm", "--weights",
		"--rows", "60", "--features", "3", "--alpha", "0.01")
	require.NoError(t, err)

	doc := decodeRun(t, out)
	assert.False(t, doc.Skipped)
	assert.Len(t, doc.Coef, 3)
	assert.True(t, doc.Converged)
}

func TestRun_Errors(t *testing.T) {
	_, err := execute(t, "run", "--library", "no-such-library")
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr), "got %v", err)

	_, err = execute(t, "run", "--distribution", "tweedie", "--rows", "100")
	assert.True(t, errors.Is(err, errors.ErrNotImplemented), "got %v", err)

	_, err = execute(t, "run", "--log-level", "loud")
	assert.Error(t, err)
}

func TestRun_EnvironmentOverridesDefault(t *testing.T) {
	t.Setenv("GLMBENCH_ROWS", "20")

	out, err := execute(t, "run", "--library", "fitsparse")
	require.NoError(t, err)
	assert.True(t, decodeRun(t, out).Skipped)
}

func TestRun_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "glmbench.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("rows: 150\nsparse: true\ndensity: 0.3\n"), 0o600))

	out, err := execute(t, "--config", cfg, "run", "--library", "fitsparse")
	require.NoError(t, err)

	doc := decodeRun(t, out)
	assert.True(t, doc.Skipped)
	assert.Contains(t, doc.Reason, "156")

	// flags win over the file
	out, err = execute(t, "--config", cfg, "run", "--library", "fitsparse", "--rows", "300")
	require.NoError(t, err)
	assert.False(t, decodeRun(t, out).Skipped)
}

func TestCV_PlotAndExport(t *testing.T) {
	dir := t.TempDir()
	plotPath := filepath.Join(dir, "mse.png")
	weightsPath := filepath.Join(dir, "weights.json")

	out, err := execute(t, "cv",
		"--rows", "60", "--features", "4",
		"--l1-ratio", "0.3, 0.6", "--n-alphas", "3", "--cv", "3",
		"--plot", plotPath, "--export", weightsPath,
	)
	require.NoError(t, err)

	var doc cvOutput
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	require.Len(t, doc.Alphas, 2)
	require.Len(t, doc.MeanMSE, 2)
	for i := range doc.Alphas {
		assert.Len(t, doc.Alphas[i], 3)
		assert.Len(t, doc.MeanMSE[i], 3)
	}
	assert.Contains(t, []float64{0.3, 0.6}, doc.L1Ratio)
	assert.Len(t, doc.Coef, 4)

	info, err := os.Stat(plotPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	raw, err := os.ReadFile(weightsPath)
	require.NoError(t, err)
	var w model.ModelWeights
	require.NoError(t, w.FromJSON(raw))
	assert.Equal(t, "GeneralizedLinearRegressorCV", w.ModelType)
	assert.InDeltaSlice(t, doc.Coef, w.Coefficients, 1e-12)
	assert.InDelta(t, doc.Intercept, w.Intercept, 1e-12)
}

func TestCV_RejectsBadOptions(t *testing.T) {
	_, err := execute(t, "cv", "--solver", "newton", "--rows", "40")
	assert.Error(t, err)

	_, err = execute(t, "cv", "--l1-ratio", "a,b", "--rows", "40")
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr), "got %v", err)
}

func TestParseFloatList(t *testing.T) {
	got, err := parseFloatList("l1-ratio", "0.1, 0.5,1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.5, 1}, got)

	_, err = parseFloatList("l1-ratio", " , ")
	assert.Error(t, err)
}

func TestMeanMSE(t *testing.T) {
	got := meanMSE([][][]float64{{{1, 3}, {2, 2}}, {{0, 4}, {6, 0}}})
	assert.Equal(t, [][]float64{{2, 2}, {2, 3}}, got)
}
