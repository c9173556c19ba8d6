// Package scorer computes a 0-100 SEO quality score for blog posts.
//
// The score is the sum of a base score (0-75) built from general content
// signals and a focus keyword score (0-25). Every rule degrades to a penalty
// or a zero contribution on missing data; scoring never fails.
package scorer

import (
	"fmt"
	"math"
	"strings"
)

// Rule identifies one rubric rule.
type Rule string

const (
	RuleTitle           Rule = "title"
	RuleMetaTitle       Rule = "meta_title"
	RuleMetaDescription Rule = "meta_description"
	RuleExcerpt         Rule = "excerpt"
	RuleContentLength   Rule = "content_length"
	RuleHeadings        Rule = "headings"
	RuleFeaturedImage   Rule = "featured_image"
	RuleContentImages   Rule = "content_images"
	RuleCategory        Rule = "category"
	RuleTags            Rule = "tags"
	RuleInternalLinks   Rule = "internal_links"
	RuleReadability     Rule = "readability"

	RuleKeywordTitle          Rule = "keyword_title"
	RuleKeywordMetaTitle      Rule = "keyword_meta_title"
	RuleKeywordHeading        Rule = "keyword_heading"
	RuleKeywordFirstParagraph Rule = "keyword_first_paragraph"
	RuleKeywordDescription    Rule = "keyword_meta_description"
	RuleKeywordDensity        Rule = "keyword_density"
)

const (
	MaxBaseScore    = 75
	MaxKeywordScore = 25
	MaxScore        = 100
)

// Recommended length windows, inclusive.
const (
	titleMinLen       = 30
	titleMaxLen       = 60
	descriptionMinLen = 120
	descriptionMaxLen = 160
	minDensity        = 0.5
	maxDensity        = 2.5
)

// Option configures a scoring call.
type Option func(*options)

type options struct {
	hostname string
}

// WithHostname sets the site hostname used to classify absolute links to the
// same site as internal.
func WithHostname(hostname string) Option {
	return func(o *options) {
		o.hostname = hostname
	}
}

// Calculate returns the SEO score of blog in [0, 100]. A nil record scores 0.
func Calculate(blog *BlogRecord, opts ...Option) int {
	return Analyze(blog, opts...).Score
}

// Analyze scores blog and returns every rule contribution along with the
// derived signals. A nil record yields an empty report with score 0.
func Analyze(blog *BlogRecord, opts ...Option) *Report {
	report := &Report{}
	if blog == nil {
		return report
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &scoring{blog: blog, report: report}
	s.collectSignals(o.hostname)

	base := 0
	for _, rule := range []func() (Rule, int, string){
		s.title,
		s.metaTitle,
		s.metaDescription,
		s.excerpt,
		s.contentLength,
		s.headings,
		s.featuredImage,
		s.contentImages,
		s.category,
		s.tags,
		s.internalLinks,
		s.readability,
	} {
		name, points, msg := rule()
		if name == "" {
			continue
		}
		base += points
		s.add(name, points, msg)
	}
	report.BaseScore = clamp(base, 0, MaxBaseScore)
	report.KeywordScore = clamp(s.keywordScore(), 0, MaxKeywordScore)
	report.Score = clamp(int(math.Round(float64(report.BaseScore+report.KeywordScore))), 0, MaxScore)
	return report
}

// scoring carries the state of one Analyze call.
type scoring struct {
	blog   *BlogRecord
	report *Report

	effectiveMetaTitle       string
	effectiveMetaDescription string
}

func (s *scoring) add(rule Rule, points int, msg string) {
	s.report.Rules = append(s.report.Rules, RuleResult{Rule: rule, Points: points, Message: msg})
}

func (s *scoring) collectSignals(hostname string) {
	b := s.blog
	sig := &s.report.Signals

	sig.ContentText = ExtractText(b.Content)
	sig.WordCount = WordCount(sig.ContentText)
	sig.Headings = ExtractHeadings(b.Content)
	sig.Images = ExtractImages(b.Content)
	sig.Links = ExtractLinks(b.Content)
	sig.SentenceCount = len(SplitSentences(sig.ContentText))
	if sig.SentenceCount > 0 {
		sig.AvgWordsPerSentence = float64(sig.WordCount) / float64(sig.SentenceCount)
	}
	for _, l := range sig.Links {
		if IsInternalLink(l.URL, hostname) {
			sig.InternalLinks++
		}
	}

	s.effectiveMetaTitle = b.Title
	s.effectiveMetaDescription = b.Excerpt
	if b.SEO != nil {
		if b.SEO.MetaTitle != "" {
			s.effectiveMetaTitle = b.SEO.MetaTitle
		}
		if b.SEO.MetaDescription != "" {
			s.effectiveMetaDescription = b.SEO.MetaDescription
		}
	}
}

func (s *scoring) title() (Rule, int, string) {
	n := charLength(s.blog.Title)
	switch {
	case n == 0:
		return RuleTitle, -15, "missing title"
	case n < titleMinLen || n > titleMaxLen:
		return RuleTitle, 5, fmt.Sprintf("title is %d characters, outside %d-%d", n, titleMinLen, titleMaxLen)
	default:
		return RuleTitle, 15, "title length is optimal"
	}
}

func (s *scoring) metaTitle() (Rule, int, string) {
	switch {
	case s.effectiveMetaTitle == "":
		return RuleMetaTitle, -5, "missing meta title"
	case s.effectiveMetaTitle == s.blog.Title:
		return RuleMetaTitle, 5, "meta title falls back to the post title"
	}
	n := charLength(s.effectiveMetaTitle)
	if n < titleMinLen || n > titleMaxLen {
		return RuleMetaTitle, 5, fmt.Sprintf("meta title is %d characters, outside %d-%d", n, titleMinLen, titleMaxLen)
	}
	return RuleMetaTitle, 10, "meta title length is optimal"
}

func (s *scoring) metaDescription() (Rule, int, string) {
	n := charLength(s.effectiveMetaDescription)
	switch {
	case n == 0:
		return RuleMetaDescription, -5, "missing meta description"
	case n < descriptionMinLen || n > descriptionMaxLen:
		return RuleMetaDescription, 5, fmt.Sprintf("meta description is %d characters, outside %d-%d", n, descriptionMinLen, descriptionMaxLen)
	default:
		return RuleMetaDescription, 10, "meta description length is optimal"
	}
}

func (s *scoring) excerpt() (Rule, int, string) {
	n := charLength(s.blog.Excerpt)
	switch {
	case n == 0:
		return RuleExcerpt, -5, "missing excerpt"
	case n < descriptionMinLen || n > descriptionMaxLen:
		return RuleExcerpt, 2, fmt.Sprintf("excerpt is %d characters, outside %d-%d", n, descriptionMinLen, descriptionMaxLen)
	default:
		return RuleExcerpt, 5, "excerpt length is optimal"
	}
}

func (s *scoring) contentLength() (Rule, int, string) {
	wc := s.report.Signals.WordCount
	switch {
	case wc < 300:
		return RuleContentLength, -10, fmt.Sprintf("content has %d words, below 300", wc)
	case wc < 1000:
		return RuleContentLength, 5, fmt.Sprintf("content has %d words", wc)
	default:
		return RuleContentLength, 10, fmt.Sprintf("content has %d words", wc)
	}
}

func (s *scoring) headings() (Rule, int, string) {
	var h1, h2 int
	for _, h := range s.report.Signals.Headings {
		switch h.Level {
		case 1:
			h1++
		case 2:
			h2++
		}
	}
	switch {
	case h1 == 0:
		return RuleHeadings, -5, "no H1 heading"
	case h1 > 1:
		return RuleHeadings, 3, fmt.Sprintf("%d H1 headings found", h1)
	case h2 > 0:
		return RuleHeadings, 10, "one H1 with H2 subheadings"
	case s.report.Signals.WordCount > 500:
		return RuleHeadings, 5, "long content without H2 subheadings"
	default:
		return RuleHeadings, 7, "one H1 heading"
	}
}

func (s *scoring) featuredImage() (Rule, int, string) {
	img := s.blog.FeaturedImage
	switch {
	case img == nil || img.URL == "":
		return RuleFeaturedImage, -4, "missing featured image"
	case strings.TrimSpace(img.Alt) == "":
		return RuleFeaturedImage, 2, "featured image has no alt text"
	default:
		return RuleFeaturedImage, 8, "featured image with alt text"
	}
}

func (s *scoring) contentImages() (Rule, int, string) {
	images := s.report.Signals.Images
	if len(images) == 0 {
		return RuleContentImages, 0, "no images in content"
	}
	missing := 0
	for _, img := range images {
		if strings.TrimSpace(img.Alt) == "" {
			missing++
		}
	}
	if missing > 0 {
		return RuleContentImages, 2, fmt.Sprintf("%d of %d images lack alt text", missing, len(images))
	}
	return RuleContentImages, 5, "all content images have alt text"
}

func (s *scoring) category() (Rule, int, string) {
	if s.blog.Category == "" {
		return RuleCategory, -5, "missing category"
	}
	return RuleCategory, 5, "category set"
}

func (s *scoring) tags() (Rule, int, string) {
	n := len(s.blog.Tags)
	switch {
	case n == 0:
		return RuleTags, -1, "no tags"
	case n < 3:
		return RuleTags, 1, fmt.Sprintf("%d tags", n)
	default:
		return RuleTags, 3, fmt.Sprintf("%d tags", n)
	}
}

// internalLinks is only evaluated for content longer than 500 words.
func (s *scoring) internalLinks() (Rule, int, string) {
	if s.report.Signals.WordCount <= 500 {
		return "", 0, ""
	}
	n := s.report.Signals.InternalLinks
	switch {
	case n == 0:
		return RuleInternalLinks, 0, "no internal links"
	case n >= 3 && n <= 10:
		return RuleInternalLinks, 7, fmt.Sprintf("%d internal links", n)
	default:
		return RuleInternalLinks, 4, fmt.Sprintf("%d internal links, 3-10 recommended", n)
	}
}

func (s *scoring) readability() (Rule, int, string) {
	avg := s.report.Signals.AvgWordsPerSentence
	if avg > 20 {
		return RuleReadability, 2, fmt.Sprintf("%.1f words per sentence, above 20", avg)
	}
	return RuleReadability, 5, fmt.Sprintf("%.1f words per sentence", avg)
}

func (s *scoring) keywordScore() int {
	if s.blog.SEO == nil {
		return 0
	}
	keyword := NormalizeText(s.blog.SEO.FocusKeyword)
	if keyword == "" {
		return 0
	}

	sig := &s.report.Signals
	normalizedContent := NormalizeText(sig.ContentText)
	sig.KeywordOccurrences = strings.Count(normalizedContent, keyword)
	if sig.WordCount > 0 {
		sig.KeywordDensity = float64(sig.KeywordOccurrences) / float64(sig.WordCount) * 100
	}

	inHeading := false
	for _, h := range sig.Headings {
		if h.Level == 1 && strings.Contains(NormalizeText(h.Text), keyword) {
			inHeading = true
			break
		}
	}

	checks := []struct {
		rule   Rule
		points int
		ok     bool
		label  string
	}{
		{RuleKeywordTitle, 5, strings.Contains(NormalizeText(s.blog.Title), keyword), "title"},
		{RuleKeywordMetaTitle, 4, strings.Contains(NormalizeText(s.effectiveMetaTitle), keyword), "meta title"},
		{RuleKeywordHeading, 5, inHeading, "H1 heading"},
		{RuleKeywordFirstParagraph, 3, strings.Contains(NormalizeText(FirstParagraph(sig.ContentText)), keyword), "first paragraph"},
		{RuleKeywordDescription, 4, strings.Contains(NormalizeText(s.effectiveMetaDescription), keyword), "meta description"},
		{RuleKeywordDensity, 4, sig.KeywordDensity >= minDensity && sig.KeywordDensity <= maxDensity, ""},
	}

	total := 0
	for _, c := range checks {
		points, msg := 0, "focus keyword missing from "+c.label
		if c.ok {
			points, msg = c.points, "focus keyword in "+c.label
		}
		if c.rule == RuleKeywordDensity {
			msg = fmt.Sprintf("keyword density %.2f%%, %.1f-%.1f%% recommended", sig.KeywordDensity, minDensity, maxDensity)
		}
		total += points
		s.add(c.rule, points, msg)
	}
	return total
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
