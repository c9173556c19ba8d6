package analyzer

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/seo-optimizer/blogscore/scorer"
)

// BlogFromDocument maps a published page onto the CMS record shape. raw is
// the unparsed page body and is only used when the page has no <article>
// or <main> element.
func BlogFromDocument(doc *goquery.Document, pageURL *url.URL, raw []byte) *scorer.BlogRecord {
	docTitle := strings.TrimSpace(doc.Find("title").First().Text())

	title := metaContent(doc, "meta[property='og:title']")
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = docTitle
	}

	blog := &scorer.BlogRecord{
		Title:    title,
		Content:  mainContent(doc, pageURL, raw),
		Excerpt:  metaContent(doc, "meta[property='og:description']"),
		Category: metaContent(doc, "meta[property='article:section']"),
		Tags:     pageTags(doc),
		SEO: &scorer.SEOFields{
			MetaTitle:       docTitle,
			MetaDescription: metaContent(doc, "meta[name='description']"),
		},
	}

	if image := metaContent(doc, "meta[property='og:image']"); image != "" {
		blog.FeaturedImage = &scorer.FeaturedImage{
			URL: image,
			Alt: metaContent(doc, "meta[property='og:image:alt']"),
		}
	}

	return blog
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// pageTags prefers article:tag entries and falls back to the keywords meta tag
func pageTags(doc *goquery.Document) []string {
	var tags []string
	doc.Find("meta[property='article:tag']").Each(func(_ int, s *goquery.Selection) {
		if tag := strings.TrimSpace(s.AttrOr("content", "")); tag != "" {
			tags = append(tags, tag)
		}
	})
	if len(tags) > 0 {
		return tags
	}

	for _, kw := range strings.Split(metaContent(doc, "meta[name='keywords']"), ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			tags = append(tags, kw)
		}
	}
	return tags
}

// mainContent returns the article body markup: <article>, then <main>, then
// the readability extraction, then <body>.
func mainContent(doc *goquery.Document, pageURL *url.URL, raw []byte) string {
	for _, selector := range []string{"article", "main"} {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			if html, err := sel.Html(); err == nil && strings.TrimSpace(html) != "" {
				return html
			}
		}
	}

	if len(raw) > 0 {
		article, err := readability.FromReader(bytes.NewReader(raw), pageURL)
		if err == nil && strings.TrimSpace(article.Content) != "" {
			return article.Content
		}
	}

	html, _ := doc.Find("body").First().Html()
	return html
}
