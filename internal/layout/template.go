package layout

import "html/template"

// Helper is the name of the in-page API the browser backend talks to.
const Helper = "__s2v"

var page = template.Must(template.New("presentation").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Overlay.Title}}</title>
<style>
  html, body { margin: 0; padding: 0; overflow: hidden; background: #0b0b0f; }
  body { width: {{.Width}}px; height: {{.Height}}px; position: relative;
         font-family: "Inter", "Helvetica Neue", Arial, sans-serif; color: #fff; }
  #s2v-header { position: absolute; left: 0; top: 0; width: 100%; height: {{.Header}}px;
                display: flex; flex-direction: column; align-items: center; justify-content: center; text-align: center; }
  #s2v-header .kicker { font-size: {{.FontHeader}}px; letter-spacing: 0.2em; color: #f5c518; font-weight: 700; }
  #s2v-header .title { font-size: {{.FontTitle}}px; font-weight: 900; margin-top: 0.3em; padding: 0 {{.Margin}}px; }
  #s2v-window { position: absolute; left: {{.Margin}}px; top: {{.Header}}px; overflow: hidden;
                width: {{.FrameW}}px; height: {{.FrameH}}px; border-radius: 18px; background: #fff;
                {{if .Debug}}outline: 2px dashed #f0f;{{end}} }
  #s2v-frame { border: 0; display: block; transform-origin: 0 0; transform: scale({{.FrameScale}});
               width: {{.ContentWidth}}px; height: {{.ContentH}}px; }
  #s2v-footer { position: absolute; left: 0; bottom: 0; width: 100%; height: {{.Footer}}px;
                display: flex; align-items: center; justify-content: center; gap: {{.Margin}}px; }
  #s2v-footer .cta { font-size: {{.FontCTA}}px; font-weight: 900; background: #f5c518; color: #0b0b0f;
                     padding: 0.35em 0.9em; border-radius: 999px; }
  #s2v-footer .sub { font-size: {{.FontSubtext}}px; margin-top: 0.6em; letter-spacing: 0.15em; text-align: center; }
  #s2v-footer img { width: {{.QRSize}}px; height: {{.QRSize}}px; border-radius: 12px; background: #fff; }
  #s2v-cursor { position: absolute; left: 0; top: 0; width: {{.CursorSize}}px; height: {{.CursorSize}}px;
                pointer-events: none; z-index: 10; will-change: transform; }
</style>
</head>
<body>
<div id="s2v-header">
  <div class="kicker">{{.Overlay.Header}}</div>
  <div class="title">{{.Overlay.Title}}</div>
</div>
<div id="s2v-window">
  <iframe id="s2v-frame" src="{{.ContentURL}}" scrolling="yes"></iframe>
</div>
<div id="s2v-footer">
  <div>
    <div class="cta">{{.Overlay.CTA}}</div>
    <div class="sub">{{.Overlay.CTASubtext}}</div>
  </div>
  {{if .QR}}<img alt="" src="{{.QR}}">{{end}}
</div>
<svg id="s2v-cursor" viewBox="0 0 24 24">
  <path d="M3 2 L3 20 L8 15 L11.5 22 L14.5 20.6 L11 14 L18 14 Z" fill="#111" stroke="#fff" stroke-width="1.5"/>
</svg>
<script>
window.__s2v = (function () {
  var frame = document.getElementById('s2v-frame');
  var cursor = document.getElementById('s2v-cursor');
  var loaded = false;

  function win() { return frame.contentWindow; }
  function doc() { try { return frame.contentDocument; } catch (e) { return null; } }

  frame.addEventListener('load', function () {
    loaded = true;
    var d = doc();
    if (d && d.documentElement) { d.documentElement.style.scrollBehavior = 'auto'; }
  });

  return {
    win: win,
    loaded: function () { var d = doc(); return loaded && !!d && d.readyState === 'complete'; },
    cursor: function (x, y) { cursor.style.transform = 'translate(' + x + 'px,' + y + 'px)'; },
    scrollTo: function (y) { win().scrollTo({ top: y, left: 0, behavior: 'instant' }); return win().scrollY; },
    scrollY: function () { return win().scrollY; },
    metrics: function () {
      var r = frame.getBoundingClientRect();
      var d = doc();
      var docH = d ? Math.max(d.documentElement.scrollHeight, d.body ? d.body.scrollHeight : 0) : 0;
      return {
        canvasWidth: window.innerWidth, canvasHeight: window.innerHeight,
        frameX: r.left, frameY: r.top, frameWidth: r.width, frameHeight: r.height,
        contentWidth: frame.offsetWidth, contentHeight: frame.offsetHeight,
        viewportHeight: win().innerHeight, docHeight: docH
      };
    },
    frameRect: function () { var r = frame.getBoundingClientRect(); return { x: r.left, y: r.top, w: r.width, h: r.height }; }
  };
})();
</script>
</body>
</html>
`))
