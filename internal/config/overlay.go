package config

import (
	"math/rand"
	"strings"
)

// Overlay is the text shown around the content frame.
type Overlay struct {
	Header     string `yaml:"header" toml:"header" json:"overlay_header"`
	Title      string `yaml:"title" toml:"title" json:"overlay_text"`
	CTA        string `yaml:"cta" toml:"cta" json:"cta_text"`
	CTASubtext string `yaml:"cta_subtext" toml:"cta_subtext" json:"cta_subtext"`
	CTAURL     string `yaml:"cta_url" toml:"cta_url" json:"cta_url"`
}

// DefaultOverlay is used when neither the user nor the content supplies text.
func DefaultOverlay() Overlay {
	return Overlay{
		Header:     "WEB DESIGN AWARDS",
		Title:      "THE POWER OF SIMPLICITY",
		CTA:        "GET THIS TEMPLATE",
		CTASubtext: "LIMITED TIME OFFER",
	}
}

var templates = struct {
	headers, titles, ctas, urgency []string
}{
	headers: []string{
		"WEB DESIGN AWARDS", "ILLEGAL DESIGN", "STOP SCROLLING", "DEVELOPER HACK",
		"VISUAL ASMR", "UI/UX MASTERCLASS", "IMPOSSIBLE WEBSITE", "CODING MAGIC",
	},
	titles: []string{
		"THE POWER OF SIMPLICITY", "BETTER THAN APPLE?", "3D WEB EXPLAINED",
		"COPY THIS DESIGN", "CLIENTS PAY $10K FOR THIS", "FUTURE OF WEB",
	},
	ctas: []string{
		"VISIT OUR WEBSITE", "GET A QUOTE", "START YOUR PROJECT",
		"HIRE US TODAY", "BUILD YOUR VISION",
	},
	urgency: []string{
		"TRANSFORM YOUR BRAND", "DOMINATE YOUR MARKET", "PREMIUM DESIGN", "NEXT LEVEL UI",
		"AWARD WINNING TEAM",
	},
}

// TemplateOverlay picks a seeded combination of the stock hooks.
func TemplateOverlay(seed int64) Overlay {
	r := rand.New(rand.NewSource(seed))
	pick := func(s []string) string { return s[r.Intn(len(s))] }
	return Overlay{
		Header:     pick(templates.headers),
		Title:      pick(templates.titles),
		CTA:        pick(templates.ctas),
		CTASubtext: pick(templates.urgency),
	}
}

// Merge fills empty fields of o from fallback.
func (o Overlay) Merge(fallback Overlay) Overlay {
	fill := func(v, f string) string {
		if strings.TrimSpace(v) == "" {
			return f
		}
		return v
	}
	return Overlay{
		Header:     fill(o.Header, fallback.Header),
		Title:      fill(o.Title, fallback.Title),
		CTA:        fill(o.CTA, fallback.CTA),
		CTASubtext: fill(o.CTASubtext, fallback.CTASubtext),
		CTAURL:     fill(o.CTAURL, fallback.CTAURL),
	}
}

// Normalize upper-cases the display text and trims whitespace. The URL is
// left untouched.
func (o Overlay) Normalize() Overlay {
	up := func(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
	return Overlay{
		Header:     up(o.Header),
		Title:      up(o.Title),
		CTA:        up(o.CTA),
		CTASubtext: up(o.CTASubtext),
		CTAURL:     strings.TrimSpace(o.CTAURL),
	}
}
