package scorer

// BlogRecord is the blog post snapshot handed over by the CMS.
type BlogRecord struct {
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	Excerpt       string         `json:"excerpt"`
	Category      string         `json:"category"`
	Tags          []string       `json:"tags"`
	FeaturedImage *FeaturedImage `json:"featuredImage,omitempty"`
	SEO           *SEOFields     `json:"seo,omitempty"`
}

type FeaturedImage struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

type SEOFields struct {
	MetaTitle       string `json:"metaTitle,omitempty"`
	MetaDescription string `json:"metaDescription,omitempty"`
	FocusKeyword    string `json:"focusKeyword,omitempty"`
}

// Heading is an <h1>..<h6> element found in the content.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

type Image struct {
	Alt string `json:"alt"`
}

type Link struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Signals are the values derived from a record while scoring it.
type Signals struct {
	ContentText         string    `json:"-"`
	WordCount           int       `json:"wordCount"`
	Headings            []Heading `json:"headings"`
	Images              []Image   `json:"images"`
	Links               []Link    `json:"links"`
	SentenceCount       int       `json:"sentenceCount"`
	InternalLinks       int       `json:"internalLinks"`
	AvgWordsPerSentence float64   `json:"avgWordsPerSentence"`
	KeywordOccurrences  int       `json:"keywordOccurrences"`
	KeywordDensity      float64   `json:"keywordDensity"`
}

// RuleResult is the contribution of one rubric rule.
type RuleResult struct {
	Rule    Rule   `json:"rule"`
	Points  int    `json:"points"`
	Message string `json:"message"`
}

// Report is the full result of scoring a BlogRecord.
type Report struct {
	Score        int          `json:"score"`
	BaseScore    int          `json:"baseScore"`
	KeywordScore int          `json:"keywordScore"`
	Rules        []RuleResult `json:"rules"`
	Signals      Signals      `json:"signals"`
}

// Points returns the contribution recorded for rule, or 0 when the rule was
// not evaluated.
func (r *Report) Points(rule Rule) int {
	if r == nil {
		return 0
	}
	for _, res := range r.Rules {
		if res.Rule == rule {
			return res.Points
		}
	}
	return 0
}

// Evaluated reports whether rule produced a result.
func (r *Report) Evaluated(rule Rule) bool {
	if r == nil {
		return false
	}
	for _, res := range r.Rules {
		if res.Rule == rule {
			return true
		}
	}
	return false
}
