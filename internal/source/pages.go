package source

import (
	"context"
	"fmt"
	"html/template"
	"image/png"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

var stackedPage = template.Must(template.New("pages").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  html, body { margin: 0; padding: 0; background: #f4f4f4; }
  img { display: block; width: 100%; height: auto; margin: 0 0 24px 0; box-shadow: 0 4px 18px rgba(0,0,0,.12); }
</style>
</head>
<body>
{{range .Pages}}<img src="{{.}}" alt="">
{{end}}</body>
</html>
`))

// RenderPages rasterises every page of src into dir and writes an
// index.html that stacks them vertically. Pages render in parallel.
func RenderPages(ctx context.Context, src PageSource, dir, title string, dpi int) (string, error) {
	n := src.PageCount()
	if n == 0 {
		return "", fmt.Errorf("source has no pages")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	names := make([]string, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := 0; i < n; i++ {
		i := i
		names[i] = fmt.Sprintf("page_%03d.png", i+1)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := src.RenderPage(i, dpi)
			if err != nil {
				return fmt.Errorf("render page %d: %w", i+1, err)
			}
			f, err := os.Create(filepath.Join(dir, names[i]))
			if err != nil {
				return err
			}
			if err := png.Encode(f, img); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	index := filepath.Join(dir, "index.html")
	f, err := os.Create(index)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := stackedPage.Execute(f, struct {
		Title string
		Pages []string
	}{title, names}); err != nil {
		return "", err
	}
	return index, nil
}
