package director

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePlanPath(t *testing.T) {
	at := time.Date(2026, 2, 13, 1, 0, 0, 0, time.UTC)
	path := GeneratePlanPath("plans", at)

	assert.Equal(t, filepath.Join("plans", "plan_2026-02-13_01-00-00.yaml"), path)
	t.Logf("Generated path: %s", path)
}

func TestFindLatestPlan(t *testing.T) {
	dir := t.TempDir()

	files := []string{
		filepath.Join(dir, "plan_2026-02-12_10-00-00.yaml"),
		filepath.Join(dir, "plan_2026-02-13_01-00-00.yaml"),
		filepath.Join(dir, "plan_2026-02-11_15-30-00.yaml"),
	}
	for i, f := range files {
		require.NoError(t, os.WriteFile(f, []byte("test"), 0644))
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(f, modTime, modTime))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	latest, err := FindLatestPlan(dir)
	require.NoError(t, err)
	t.Logf("Latest plan: %s", latest)

	// Should be the last file (most recent mod time)
	assert.Equal(t, files[len(files)-1], latest)
}

func TestFindLatestPlanEmptyDir(t *testing.T) {
	_, err := FindLatestPlan(t.TempDir())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no plan files"))
}
