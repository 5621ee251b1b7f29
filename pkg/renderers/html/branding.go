package html

import (
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// image is a branding image ready for the template: either sanitized inline
// SVG markup or a vetted URL.
type image struct {
	SVG string `json:"svg,omitempty"`
	URL string `json:"url,omitempty"`
}

func (i image) empty() bool { return i.SVG == "" && i.URL == "" }

var (
	svgPolicyOnce sync.Once
	svgPolicy     *bluemonday.Policy

	dataImagePattern = regexp.MustCompile(`^data:image/(png|jpe?g|gif|webp|svg\+xml)(;base64)?,`)
)

// resolveImage classifies a branding value. Inline SVG is sanitized, URLs
// are kept for http(s), root-relative paths and data:image payloads, bare
// names are resolved through the theme assets. Anything else is dropped.
func resolveImage(raw string, assetURL func(string) string) image {
	value := strings.TrimSpace(raw)
	if value == "" {
		return image{}
	}
	lower := strings.ToLower(value)
	if strings.HasPrefix(lower, "<svg") || strings.HasPrefix(lower, "<?xml") {
		return image{SVG: sanitizeSVG(value)}
	}
	if safeURL(value) {
		return image{URL: value}
	}
	if strings.Contains(value, ":") || strings.HasPrefix(value, "//") || assetURL == nil {
		return image{}
	}
	if resolved := assetURL(value); safeURL(resolved) {
		return image{URL: resolved}
	}
	return image{}
}

func safeURL(value string) bool {
	lower := strings.ToLower(value)
	switch {
	case strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "http://"):
		return !strings.ContainsAny(value, " \"'<>")
	case strings.HasPrefix(value, "/") && !strings.HasPrefix(value, "//"):
		return !strings.ContainsAny(value, " \"'<>")
	default:
		return dataImagePattern.MatchString(lower)
	}
}

func sanitizeSVG(raw string) string {
	if i := strings.Index(strings.ToLower(raw), "<svg"); i > 0 {
		raw = raw[i:]
	}
	return strings.TrimSpace(svgSanitizer().Sanitize(raw))
}

func svgSanitizer() *bluemonday.Policy {
	svgPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements(
			"svg", "g", "path", "circle", "rect", "line", "polyline", "polygon",
			"ellipse", "text", "tspan", "title", "desc", "defs", "lineargradient",
			"radialgradient", "stop", "clippath",
		)
		policy.AllowAttrs(
			"xmlns", "viewBox", "width", "height", "fill", "stroke",
			"stroke-width", "aria-hidden", "role", "focusable", "preserveAspectRatio",
		).OnElements("svg")

		shapes := []string{"path", "circle", "rect", "line", "polyline", "polygon", "ellipse", "text", "tspan", "g"}
		policy.AllowAttrs(
			"d", "cx", "cy", "r", "x", "y", "x1", "y1", "x2", "y2", "dx", "dy",
			"points", "rx", "ry", "fill", "stroke", "stroke-width", "stroke-linecap",
			"stroke-linejoin", "opacity", "transform", "font-size", "font-family",
			"text-anchor", "clip-path",
		).OnElements(shapes...)

		policy.AllowAttrs("id", "x1", "y1", "x2", "y2", "cx", "cy", "r", "gradientUnits").
			OnElements("lineargradient", "radialgradient")
		policy.AllowAttrs("offset", "stop-color", "stop-opacity").OnElements("stop")
		policy.AllowAttrs("id").OnElements("defs", "clippath", "g")

		svgPolicy = policy
	})
	return svgPolicy
}
