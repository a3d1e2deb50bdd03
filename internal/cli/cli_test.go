package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/site2video/internal/analyzer"
	"github.com/ivlev/site2video/internal/config"
	"github.com/ivlev/site2video/internal/director"
	"github.com/ivlev/site2video/internal/logging"
)

func TestOutputPath(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join("output", "acme.example_pricing_2026-03-01_09-30-00.mp4"),
		outputPath("output", "https://acme.example/pricing/", now))
	assert.Equal(t, filepath.Join("output", "My_Deck_2026-03-01_09-30-00.mp4"),
		outputPath("output", filepath.Join("input", "My Deck.pdf"), now))
	assert.Equal(t, filepath.Join("output", "site_2026-03-01_09-30-00.mp4"),
		outputPath("output", filepath.Join("input", "site")+string(filepath.Separator), now))
}

func TestNewJobUsesScriptOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "script.json"), []byte(`{"video_duration_override": 42}`), 0644))

	deps := &Dependencies{Config: config.Default(), Log: logging.Discard()}
	job, err := deps.newJob(dir, "out/site.mp4", "", false)
	require.NoError(t, err)
	assert.Equal(t, 42.0, job.Budget)

	deps.Config.Duration = 12
	job, err = deps.newJob(dir, "out/site.mp4", "", false)
	require.NoError(t, err)
	assert.Equal(t, 12.0, job.Budget)
}

func TestNewJobFallsBack(t *testing.T) {
	deps := &Dependencies{Config: config.Default(), Log: logging.Discard()}
	job, err := deps.newJob("https://acme.example", "out/acme.mp4", "", true)
	require.NoError(t, err)
	assert.Equal(t, 30.0, job.Budget)
	assert.NotEmpty(t, job.Overlay.CTA)
}

func TestSimulatedTargets(t *testing.T) {
	pois := simulatedTargets(1024, []float64{800, 2000}, []float64{5500})
	require.Len(t, pois, 3)
	assert.Equal(t, 800.0, pois[0].AbsoluteY)
	assert.Equal(t, analyzer.KindButton, pois[2].Kind)
	assert.InDelta(t, 512, pois[2].X, 1e-9)
}

func TestPlanCommandWritesPlan(t *testing.T) {
	var out bytes.Buffer
	deps := &Dependencies{Version: "test", Out: &out}
	path := filepath.Join(t.TempDir(), "plan.yaml")

	cmd := NewRootCmd(deps)
	cmd.SetArgs([]string{"plan", "--duration", "20", "--targets", "800,2000,3200", "--buttons", "5500", "--encoder", "libx264", "--timeline", "5", "-o", path})
	require.NoError(t, cmd.Execute())

	plan, err := director.ReadPlan(path)
	require.NoError(t, err)
	assert.Len(t, plan.Acts, 3)
	assert.NotEmpty(t, plan.Keyframes)
	assert.Contains(t, out.String(), "[+++] Plan saved")
	assert.Contains(t, out.String(), "scroll")
}

func TestPlanShowPrintsLatestPlan(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SITE2VIDEO_PLANS_DIR", dir)

	var out bytes.Buffer
	cmd := NewRootCmd(&Dependencies{Version: "test", Out: &out})
	cmd.SetArgs([]string{"plan", "--duration", "20", "--targets", "800,2000", "--encoder", "libx264"})
	require.NoError(t, cmd.Execute())

	latest, err := director.FindLatestPlan(dir)
	require.NoError(t, err)

	out.Reset()
	cmd = NewRootCmd(&Dependencies{Version: "test", Out: &out})
	cmd.SetArgs([]string{"plan", "show", "--timeline", "4"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "[*] Plan: "+latest)
	assert.Contains(t, out.String(), "stop 1:")
	assert.Contains(t, out.String(), "pointer (")
	assert.Contains(t, out.String(), "glideWithStops")
}

func TestPlanShowWithoutPlans(t *testing.T) {
	t.Setenv("SITE2VIDEO_PLANS_DIR", t.TempDir())

	cmd := NewRootCmd(&Dependencies{Version: "test", Out: &bytes.Buffer{}})
	cmd.SetArgs([]string{"plan", "show"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	assert.Error(t, cmd.Execute())
}
