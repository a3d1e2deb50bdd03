package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrUnresolvable is returned for input that is neither a reachable URL nor
// usable local content.
var ErrUnresolvable = errors.New("content cannot be resolved")

type Kind int

const (
	KindURL Kind = iota
	KindHTML
	KindPDF
	KindImages
)

func (k Kind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindHTML:
		return "html"
	case KindPDF:
		return "pdf"
	case KindImages:
		return "images"
	default:
		return "unknown"
	}
}

// Content is resolved, servable content.
type Content struct {
	Kind     Kind
	Input    string
	Root     string // local directory served under /content/, empty for URLs
	Entry    string // file under Root, or the absolute URL
	Metadata Metadata
}

// Remote reports whether the content is loaded from the network.
func (c *Content) Remote() bool {
	return c.Kind == KindURL
}

// FrameURL is what the presentation frame loads.
func (c *Content) FrameURL() string {
	if c.Remote() {
		return c.Entry
	}
	return "/content/" + filepath.ToSlash(c.Entry)
}

// Resolver turns job input into Content. Generated pages go to WorkDir.
type Resolver struct {
	WorkDir      string
	DPI          int
	ProbeTimeout time.Duration
	Client       *http.Client
}

func NewResolver(workDir string) *Resolver {
	return &Resolver{
		WorkDir:      workDir,
		DPI:          150,
		ProbeTimeout: 10 * time.Second,
		Client:       http.DefaultClient,
	}
}

// Resolve accepts an http(s) URL, an .html file, a directory with an
// index.html, a PDF, or a folder of images.
func (r *Resolver) Resolve(ctx context.Context, input string) (*Content, error) {
	if u, err := url.Parse(input); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return r.resolveURL(ctx, input)
	}

	fi, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolvable, err)
	}

	if fi.IsDir() {
		if _, err := os.Stat(filepath.Join(input, "index.html")); err == nil {
			return r.local(KindHTML, input, input, "index.html")
		}
		if pdf := firstPDF(input); pdf != "" {
			return r.resolvePages(ctx, KindPDF, pdf)
		}
		if hasImages(input) {
			return r.resolvePages(ctx, KindImages, input)
		}
		return nil, fmt.Errorf("%w: %s has no index.html, PDF or images", ErrUnresolvable, input)
	}

	switch strings.ToLower(filepath.Ext(input)) {
	case ".html", ".htm":
		return r.local(KindHTML, input, filepath.Dir(input), filepath.Base(input))
	case ".pdf":
		return r.resolvePages(ctx, KindPDF, input)
	}
	if imageExts[strings.ToLower(filepath.Ext(input))] {
		return r.resolvePages(ctx, KindImages, input)
	}
	return nil, fmt.Errorf("%w: unsupported file %s", ErrUnresolvable, input)
}

func (r *Resolver) local(kind Kind, input, root, entry string) (*Content, error) {
	meta, err := LoadMetadata(root, entry)
	if err != nil {
		return nil, err
	}
	return &Content{Kind: kind, Input: input, Root: root, Entry: entry, Metadata: meta}, nil
}

func (r *Resolver) resolvePages(ctx context.Context, kind Kind, input string) (*Content, error) {
	var src PageSource
	var err error
	if kind == KindPDF {
		src, err = NewPDFSource(input)
	} else {
		src, err = NewImageSource(input)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolvable, err)
	}
	defer src.Close()

	title := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	dir := filepath.Join(r.WorkDir, "pages")
	if _, err := RenderPages(ctx, src, dir, title, r.DPI); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolvable, err)
	}

	// script.json next to the source still applies
	metaDir := input
	if fi, err := os.Stat(input); err == nil && !fi.IsDir() {
		metaDir = filepath.Dir(input)
	}
	meta, err := LoadMetadata(metaDir, "")
	if err != nil {
		return nil, err
	}
	if meta.Title == "" {
		meta.Title = title
	}
	return &Content{Kind: kind, Input: input, Root: dir, Entry: "index.html", Metadata: meta}, nil
}

// resolveURL probes the URL. Transport failures are fatal; HTTP error
// statuses are not, many sites refuse bare clients but render in a browser.
func (r *Resolver) resolveURL(ctx context.Context, raw string) (*Content, error) {
	ctx, cancel := context.WithTimeout(ctx, r.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolvable, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; site2video)")
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s unreachable: %v", ErrUnresolvable, raw, err)
	}
	defer resp.Body.Close()

	c := &Content{Kind: KindURL, Input: raw, Entry: raw}
	if resp.StatusCode < 400 && strings.Contains(resp.Header.Get("Content-Type"), "html") {
		doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 4<<20))
		if err == nil {
			c.Metadata = scrape(doc, raw)
		}
	}
	return c, nil
}

func firstPDF(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}
