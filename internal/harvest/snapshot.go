package harvest

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ppiankov/trustlens/internal/model"
)

// contentSelectors are tried in order; the first container with enough text wins
var contentSelectors = []string{
	"main",
	"article",
	"[role=main]",
	".content",
	".post-content",
	".article-body",
	".entry-content",
	"#content",
}

// blockElements break text runs so adjacent blocks do not fuse into one word
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Td: true, atom.Th: true, atom.Tr: true, atom.Table: true, atom.Pre: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Blockquote: true, atom.Figcaption: true, atom.Main: true, atom.Nav: true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".webm": true, ".mov": true, ".m4v": true,
	".ogv": true, ".m3u8": true, ".avi": true, ".mkv": true,
}

// Harvester turns an HTML document into a PageSnapshot
type Harvester struct {
	maxTextChars    int
	minContentChars int
}

// NewHarvester creates a harvester; non-positive limits take the defaults
func NewHarvester(maxTextChars, minContentChars int) *Harvester {
	def := model.DefaultConfig().Harvest
	if maxTextChars <= 0 {
		maxTextChars = def.MaxTextChars
	}
	if minContentChars <= 0 {
		minContentChars = def.MinContentChars
	}
	return &Harvester{maxTextChars: maxTextChars, minContentChars: minContentChars}
}

// Snapshot extracts page text and media URLs. Relative media URLs are
// resolved against pageURL; only http(s) URLs are kept.
func (h *Harvester) Snapshot(page, pageURL string) (model.PageSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return model.PageSnapshot{}, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return model.PageSnapshot{}, fmt.Errorf("parse page url: %w", err)
	}

	snap := model.PageSnapshot{
		SourceURL: pageURL,
		Title:     normalizeSpace(doc.Find("title").First().Text()),
		ImageURLs: []string{},
		VideoURLs: []string{},
	}

	// Media first: text extraction mutates the document
	seen := make(map[string]bool)
	add := func(raw string, hint model.MediaKind) {
		abs, ok := resolveMediaURL(base, raw)
		if !ok || seen[abs] {
			return
		}
		seen[abs] = true
		if hint == model.MediaVideo || classifyMedia(abs) == model.MediaVideo {
			snap.VideoURLs = append(snap.VideoURLs, abs)
		} else {
			snap.ImageURLs = append(snap.ImageURLs, abs)
		}
	}
	doc.Find("img, video, video source").Each(func(_ int, s *goquery.Selection) {
		hint := model.MediaKind("")
		if goquery.NodeName(s) != "img" {
			hint = model.MediaVideo
		}
		if src, ok := s.Attr("src"); ok {
			add(src, hint)
		}
		if src, ok := s.Attr("data-src"); ok && goquery.NodeName(s) == "img" {
			add(src, hint)
		}
	})

	snap.Text = truncateRunes(h.extractText(doc), h.maxTextChars)
	return snap, nil
}

// extractText prefers semantic content containers and falls back to the body
func (h *Harvester) extractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, template").Remove()

	for _, sel := range contentSelectors {
		var best string
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if text := blockText(s); utf8.RuneCountInString(text) > utf8.RuneCountInString(best) {
				best = text
			}
		})
		if utf8.RuneCountInString(best) >= h.minContentChars {
			return best
		}
	}
	return blockText(doc.Find("body"))
}

// blockText collects the text under s, separating block-level elements
func blockText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		if block {
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte(' ')
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return normalizeSpace(b.String())
}

// resolveMediaURL makes raw absolute and rejects non-http(s) schemes
// (data:, blob:, javascript:)
func resolveMediaURL(base *url.URL, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}

// classifyMedia buckets a URL by extension, or by "video" in the path
func classifyMedia(rawURL string) model.MediaKind {
	u, err := url.Parse(rawURL)
	if err != nil {
		return model.MediaImage
	}
	p := strings.ToLower(u.Path)
	if videoExtensions[path.Ext(p)] || strings.Contains(p, "video") {
		return model.MediaVideo
	}
	return model.MediaImage
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
