package request

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTML returns a freshly parsed document each call, or nil when the body did
// not register as HTML. Relative links resolve against the response URL.
func (r *Response) HTML() *goquery.Document {
	if !r.html {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(r.text))
	if err != nil {
		return nil
	}
	if u, err := url.Parse(r.url); err == nil {
		doc.Url = u
	}
	return doc
}

// PageMeta is the page summary taken from OpenGraph and standard meta tags.
type PageMeta struct {
	Title       string
	Description string
	ImageURL    string
}

// Meta extracts the page title, description and image from an HTML body.
// The image URL is resolved against the response URL.
func (r *Response) Meta() PageMeta {
	doc := r.HTML()
	if doc == nil {
		return PageMeta{}
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return PageMeta{
		Title: firstNonEmpty(
			extract(`meta[property="og:title"]`),
			doc.Find("title").First().Text(),
		),
		Description: firstNonEmpty(
			extract(`meta[property="og:description"]`),
			extract(`meta[name="description"]`),
		),
		ImageURL: resolveURL(extract(`meta[property="og:image"]`), r.url),
	}
}

// resolveURL resolves ref against base; an unparsable pair yields ref unchanged.
func resolveURL(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
