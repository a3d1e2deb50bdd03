package video

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/site2video/internal/config"
	"github.com/ivlev/site2video/internal/logging"
	"github.com/ivlev/site2video/internal/system"
)

func fakeProbe(t *testing.T, info system.MediaInfo, err error) {
	t.Helper()
	old := probe
	probe = func(string) (system.MediaInfo, error) { return info, err }
	t.Cleanup(func() { probe = old })
}

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	return NewRecorder(config.EncodeParams{Width: 64, Height: 32, FPS: 30}, t.TempDir(), logging.Discard())
}

func TestBuildFFmpegArgs(t *testing.T) {
	r := NewRecorder(config.EncodeParams{
		Width: 1080, Height: 1920, FPS: 30,
		Encoder: "h264_nvenc", Filter: "format=yuv420p",
	}, "out", logging.Discard())

	args := r.buildFFmpegArgs()
	assert.Contains(t, args, "1080x1920")
	assert.Contains(t, args, "format=yuv420p")
	assert.Equal(t, r.Temporary(), args[len(args)-1])
	assert.Equal(t, []string{"-cq", "28"}, QualityArgs("h264_nvenc", r.params.Quality))
}

func TestQualityArgs(t *testing.T) {
	assert.Equal(t, []string{"-b:v", "7500k"}, QualityArgs("h264_videotoolbox", 75))
	assert.Equal(t, []string{"-crf", "23", "-preset", "medium"}, QualityArgs("libx264", 23))
	assert.Equal(t, "medium", kwArgs(QualityArgs("libx264", 23))["preset"])
}

func TestSubmitScalesToCanvas(t *testing.T) {
	r := newTestRecorder(t)
	r.latest = system.GetFrame(r.canvas())

	src := image.NewRGBA(image.Rect(0, 0, 128, 64))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, nil))

	r.Submit(buf.Bytes(), r.start)
	r.Submit([]byte("garbage"), r.start)

	stats := r.stats()
	assert.Equal(t, 1, stats.Updates)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, image.Rect(0, 0, 64, 32), r.latest.Rect)
	c := r.latest.RGBAAt(32, 16)
	assert.Greater(t, c.R, uint8(240))
}

func TestFitCopiesSameSize(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.SetRGBA(3, 3, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	fit(dst, src)
	assert.Equal(t, uint8(20), dst.RGBAAt(3, 3).G)
	assert.Zero(t, dst.RGBAAt(0, 0).A)
}

func TestFinalizeWithoutArtifactKeepsDestination(t *testing.T) {
	r := newTestRecorder(t)
	dst := filepath.Join(t.TempDir(), "video.mp4")
	require.NoError(t, os.WriteFile(dst, []byte("previous"), 0644))

	err := r.Finalize(dst, Post{})
	assert.True(t, errors.Is(err, ErrArtifactMissing))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestFinalizeRejectsEmptyArtifact(t *testing.T) {
	r := newTestRecorder(t)
	require.NoError(t, os.WriteFile(r.Temporary(), nil, 0644))
	dst := filepath.Join(t.TempDir(), "video.mp4")

	err := r.Finalize(dst, Post{})
	assert.True(t, errors.Is(err, ErrArtifactMissing))
	assert.NoFileExists(t, dst)
	assert.NoFileExists(t, r.Temporary())
}

func TestFinalizeRejectsFileWithoutVideo(t *testing.T) {
	fakeProbe(t, system.MediaInfo{Audio: true}, nil)
	r := newTestRecorder(t)
	require.NoError(t, os.WriteFile(r.Temporary(), []byte("data"), 0644))

	err := r.Finalize(filepath.Join(t.TempDir(), "video.mp4"), Post{})
	assert.True(t, errors.Is(err, ErrArtifactMissing))
}

func TestFinalizeReplacesDestination(t *testing.T) {
	fakeProbe(t, system.MediaInfo{Video: true}, nil)
	r := newTestRecorder(t)
	require.NoError(t, os.WriteFile(r.Temporary(), []byte("fresh"), 0644))

	dst := filepath.Join(t.TempDir(), "nested", "video.mp4")
	require.NoError(t, r.Finalize(dst, Post{}))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
	assert.NoFileExists(t, r.Temporary())
}

func TestStopBeforeStart(t *testing.T) {
	_, err := newTestRecorder(t).Stop()
	assert.Error(t, err)
}
