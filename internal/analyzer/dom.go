package analyzer

import (
	"context"
	"fmt"
)

// DefaultSelector is the interest taxonomy: headings, buttons and CTA-styled
// links, card-like containers and media.
const DefaultSelector = "h1, h2, h3, button, [role=button], input[type=submit], a[href], " +
	".btn, .button, .cta, [class*=card], article, img, picture, video, canvas, svg"

// domScript reports every visible element matching the selector. It runs in
// the presentation page and reaches into the content frame when present.
const domScript = `(() => {
  const win = (window.__s2v && window.__s2v.win()) || window;
  const doc = win.document;
  const sy = win.scrollY || doc.documentElement.scrollTop || 0;
  const out = [];
  doc.querySelectorAll(%q).forEach(el => {
    const r = el.getBoundingClientRect();
    if (!r.width || !r.height) return;
    const cs = win.getComputedStyle(el);
    if (cs.display === 'none' || cs.visibility === 'hidden' || parseFloat(cs.opacity) === 0) return;
    const bg = cs.backgroundColor || '';
    out.push({
      tag: el.tagName.toLowerCase(),
      role: el.getAttribute('role') || '',
      cls: typeof el.className === 'string' ? el.className : '',
      text: (el.innerText || el.getAttribute('alt') || '').trim().slice(0, 80),
      top: r.top, left: r.left, width: r.width, height: r.height,
      scrollY: sy,
      filled: bg !== '' && bg !== 'transparent' && bg !== 'rgba(0, 0, 0, 0)'
    });
  });
  return out;
})()`

// DOMDetector queries the content document for the interest taxonomy.
type DOMDetector struct {
	Selector string
}

func NewDOMDetector() *DOMDetector {
	return &DOMDetector{Selector: DefaultSelector}
}

func (d *DOMDetector) Detect(ctx context.Context, page Page) ([]Element, error) {
	sel := d.Selector
	if sel == "" {
		sel = DefaultSelector
	}
	var elems []Element
	if err := page.Evaluate(ctx, fmt.Sprintf(domScript, sel), &elems); err != nil {
		return nil, fmt.Errorf("dom scan: %w", err)
	}
	return elems, nil
}

// FallbackDetector uses Secondary when Primary finds nothing or fails.
type FallbackDetector struct {
	Primary   Detector
	Secondary Detector
}

func (d *FallbackDetector) Detect(ctx context.Context, page Page) ([]Element, error) {
	elems, err := d.Primary.Detect(ctx, page)
	if err == nil && len(elems) > 0 {
		return elems, nil
	}
	more, serr := d.Secondary.Detect(ctx, page)
	if serr != nil {
		if err != nil {
			return nil, err
		}
		return nil, serr
	}
	return more, nil
}
