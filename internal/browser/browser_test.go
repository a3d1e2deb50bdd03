package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/chromedp/cdproto/page"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/site2video/internal/geometry"
)

func TestMetricsGeometry(t *testing.T) {
	m := Metrics{
		CanvasWidth:    1080,
		CanvasHeight:   1920,
		FrameX:         40,
		FrameY:         360,
		FrameWidth:     1000,
		FrameHeight:    1200,
		ContentWidth:   1024,
		ContentHeight:  1228.8,
		ViewportHeight: 1228.8,
		DocHeight:      6000,
	}
	g := m.Geometry()
	require.NoError(t, g.Validate())
	assert.InDelta(t, 1000.0/1024, g.FrameScale, 1e-12)

	mapper, err := geometry.NewMapper(g)
	require.NoError(t, err)
	p := mapper.ToCanvas(512, 0)
	assert.InDelta(t, 540, p.X, 1e-9)
	assert.InDelta(t, 360, p.Y, 1e-9)
	assert.True(t, mapper.FrameRect().Contains(p))
}

func TestMetricsWithoutContentIsInvalid(t *testing.T) {
	g := Metrics{CanvasWidth: 1080, CanvasHeight: 1920}.Geometry()
	assert.ErrorIs(t, g.Validate(), geometry.ErrInvalidGeometry)
}

func TestLaunchRejectsEmptyWindow(t *testing.T) {
	_, err := Launch(context.Background(), Options{Width: 0, Height: 1920})
	assert.Error(t, err)
}

func TestScreencastFramesNeverBlockTheEventLoop(t *testing.T) {
	p := newPage(context.Background(), func() {}, Options{Width: 1080, Height: 1920}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	release := make(chan struct{})
	got := make(chan string, 8)
	p.startFrames(func(jpeg []byte, _ time.Time) {
		<-release // a slow decode on the consumer side
		got <- string(jpeg)
	})

	// Returns even though the sink is stuck; would deadlock otherwise.
	for i := 0; i < 5; i++ {
		data := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("frame-%d", i)))
		p.onEvent(&page.EventScreencastFrame{Data: data, SessionID: int64(i + 1)})
	}

	close(release)
	p.stopFrames()
	close(got)

	var frames []string
	for f := range got {
		frames = append(frames, f)
	}
	require.NotEmpty(t, frames)
	assert.Less(t, len(frames), 5, "stale frames are dropped")
	assert.Equal(t, "frame-4", frames[len(frames)-1], "the newest frame is delivered")

	// no delivery after stop
	p.onEvent(&page.EventScreencastFrame{Data: base64.StdEncoding.EncodeToString([]byte("late")), SessionID: 9})
}
