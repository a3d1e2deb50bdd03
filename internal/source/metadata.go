package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ivlev/site2video/internal/config"
)

// Metadata is what a content folder says about itself.
type Metadata struct {
	Narration        string  `json:"narration"`
	DurationOverride float64 `json:"video_duration_override"`
	Title            string  `json:"title"`
	config.Overlay
}

// LoadMetadata reads dir/script.json and, for anything it leaves empty,
// scrapes dir/entry. Missing files are not errors.
func LoadMetadata(dir, entry string) (Metadata, error) {
	var meta Metadata
	data, err := os.ReadFile(filepath.Join(dir, "script.json"))
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &meta); err != nil {
			return meta, fmt.Errorf("parse script.json: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return meta, err
	}

	if entry == "" {
		return meta, nil
	}
	f, err := os.Open(filepath.Join(dir, entry))
	if err != nil {
		return meta, nil
	}
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return meta, nil
	}
	scraped := scrape(doc, "")
	if meta.Title == "" {
		meta.Title = scraped.Title
	}
	meta.Overlay = meta.Overlay.Merge(scraped.Overlay)
	return meta, nil
}

// scrape extracts a title and the first call to action from a document.
// base resolves relative CTA links; without it only absolute links count.
func scrape(doc *goquery.Document, base string) Metadata {
	var meta Metadata

	meta.Title = strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		meta.Overlay.Title = collapse(h1)
	} else {
		meta.Overlay.Title = meta.Title
	}

	doc.Find("a.btn, a.button, a.cta, a[class*=cta], a[role=button], button").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := collapse(s.Text())
		if text == "" {
			return true
		}
		meta.Overlay.CTA = text
		if href, ok := s.Attr("href"); ok {
			meta.Overlay.CTAURL = absoluteURL(base, href)
		}
		return false
	})
	return meta
}

func absoluteURL(base, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		if ref.Scheme == "http" || ref.Scheme == "https" {
			return ref.String()
		}
		return ""
	}
	if base == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
