package analyzer

import (
	"context"
	"math"
	"sort"
)

// Scanner turns detector output into an ordered, deduplicated and capped list
// of points of interest. Every scan and rescan goes through the same policy.
type Scanner struct {
	Detector       Detector
	MinWidth       float64 // px, smaller elements are icons or decoration
	MinHeight      float64
	DedupTolerance float64 // px of document Y
	MaxTargets     int
}

func NewScanner(det Detector) *Scanner {
	return &Scanner{
		Detector:       det,
		MinWidth:       48,
		MinHeight:      20,
		DedupTolerance: 400,
		MaxTargets:     6,
	}
}

// Scan runs the detector and applies the target policy.
func (s *Scanner) Scan(ctx context.Context, page Page) ([]PointOfInterest, error) {
	elems, err := s.Detector.Detect(ctx, page)
	if err != nil {
		return nil, err
	}
	return s.Select(elems), nil
}

// Select applies size filtering, classification, ordering, dedup and the cap.
func (s *Scanner) Select(elems []Element) []PointOfInterest {
	pois := make([]PointOfInterest, 0, len(elems))
	for _, e := range elems {
		if e.Width < s.MinWidth || e.Height < s.MinHeight {
			continue
		}
		pois = append(pois, PointOfInterest{
			AbsoluteY: e.Top + e.ScrollY,
			X:         e.Left + e.Width/2,
			Kind:      Classify(e),
			Width:     e.Width,
			Height:    e.Height,
			Label:     e.Text,
		})
	}

	sortByY(pois)
	pois = s.dedup(pois)
	return s.limit(pois)
}

// dedup keeps no two targets within DedupTolerance px of each other. The
// more important kind wins a clash, so a plain link never displaces the
// heading or button next to it; equal kinds keep the earlier one.
func (s *Scanner) dedup(pois []PointOfInterest) []PointOfInterest {
	if len(pois) == 0 || s.DedupTolerance <= 0 {
		return pois
	}
	ranked := make([]PointOfInterest, len(pois))
	copy(ranked, pois)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Kind.Importance() > ranked[j].Kind.Importance()
	})

	var out []PointOfInterest
	for _, p := range ranked {
		clash := false
		for _, kept := range out {
			if math.Abs(p.AbsoluteY-kept.AbsoluteY) < s.DedupTolerance {
				clash = true
				break
			}
		}
		if !clash {
			out = append(out, p)
		}
	}
	sortByY(out)
	return out
}

// limit keeps the MaxTargets most important targets, in document order.
func (s *Scanner) limit(pois []PointOfInterest) []PointOfInterest {
	if s.MaxTargets <= 0 || len(pois) <= s.MaxTargets {
		return pois
	}
	ranked := make([]PointOfInterest, len(pois))
	copy(ranked, pois)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Kind.Importance() > ranked[j].Kind.Importance()
	})
	ranked = ranked[:s.MaxTargets]
	sortByY(ranked)
	return ranked
}

func sortByY(pois []PointOfInterest) {
	sort.SliceStable(pois, func(i, j int) bool {
		return pois[i].AbsoluteY < pois[j].AbsoluteY
	})
}

// Visible returns indexes of unvisited targets whose top lies inside the
// viewport [scrollY, scrollY+viewportH), in document order.
func Visible(pois []PointOfInterest, scrollY, viewportH float64) []int {
	var idx []int
	for i, p := range pois {
		if p.Visited {
			continue
		}
		if p.AbsoluteY >= scrollY && p.AbsoluteY < scrollY+viewportH {
			idx = append(idx, i)
		}
	}
	return idx
}
