package analyzer

import "strings"

type Kind int

const (
	KindGeneric Kind = iota
	KindHeading
	KindButton
	KindCard
	KindMedia
)

func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindButton:
		return "button"
	case KindCard:
		return "card"
	case KindMedia:
		return "media"
	default:
		return "generic"
	}
}

// MarshalYAML writes kinds by name in plan files.
func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// Importance is the coarse attention weight used when targets must be capped.
func (k Kind) Importance() float64 {
	switch k {
	case KindButton:
		return 1.0
	case KindHeading:
		return 0.8
	case KindMedia:
		return 0.7
	case KindCard:
		return 0.6
	default:
		return 0.3
	}
}

// PointOfInterest is a scanned target in content-document coordinates.
// AbsoluteY does not depend on the scroll offset; X is the horizontal centre.
type PointOfInterest struct {
	AbsoluteY float64
	X         float64
	Kind      Kind
	Width     float64
	Height    float64
	Label     string
	Visited   bool
}

// Center returns the vertical centre of the target in document coordinates.
func (p PointOfInterest) Center() float64 {
	return p.AbsoluteY + p.Height/2
}

// Classify maps a raw element onto the interest taxonomy.
func Classify(e Element) Kind {
	cls := strings.ToLower(e.Class)
	switch e.Tag {
	case "h1", "h2", "h3":
		return KindHeading
	case "button", "input":
		return KindButton
	case "img", "picture", "video", "canvas", "svg", "iframe":
		return KindMedia
	}
	if e.Role == "button" {
		return KindButton
	}
	if e.Tag == "a" && (e.Filled || hasAny(cls, "btn", "button", "cta")) {
		return KindButton
	}
	if hasAny(cls, "btn", "button", "cta") {
		return KindButton
	}
	if e.Tag == "article" || hasAny(cls, "card") {
		return KindCard
	}
	if e.Tag == "region" && e.Height >= 200 {
		return KindMedia
	}
	return KindGeneric
}

func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
