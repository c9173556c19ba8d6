package scorer

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	imgPattern   = regexp.MustCompile(`(?i)<img[^>]+>`)
	altPattern   = regexp.MustCompile(`(?i)alt=["']([^"']*)["']`)
	linkPattern  = regexp.MustCompile(`(?i)<a[^>]+href=["']([^"']*)["'][^>]*>(.*?)</a>`)
	sentenceSeps = regexp.MustCompile(`[.!?]+`)

	// RE2 has no backreferences, so the closing tag is matched separately
	// against the level captured by the opening tag.
	headingOpen   = regexp.MustCompile(`(?i)<h([1-6])[^>]*>`)
	headingCloses = [6]*regexp.Regexp{
		regexp.MustCompile(`(?i)</h1>`),
		regexp.MustCompile(`(?i)</h2>`),
		regexp.MustCompile(`(?i)</h3>`),
		regexp.MustCompile(`(?i)</h4>`),
		regexp.MustCompile(`(?i)</h5>`),
		regexp.MustCompile(`(?i)</h6>`),
	}
)

// firstParagraphLimit is the fallback length when no paragraph break is found.
const firstParagraphLimit = 200

// ExtractText strips tags from html and collapses whitespace.
func ExtractText(html string) string {
	if html == "" {
		return ""
	}
	return collapseSpaces(tagPattern.ReplaceAllString(html, " "))
}

// NormalizeText lowercases text and replaces everything except word
// characters and whitespace with a space.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	mapped := strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, strings.ToLower(text))
	return collapseSpaces(mapped)
}

// ExtractHeadings returns h1..h6 headings in the order they appear. It scans
// like <h([1-6])[^>]*>(.*?)</h\1> would: leftmost first, without overlap, and
// a heading must close on the line it opens on. A heading nested inside
// another one is part of the outer heading's text.
func ExtractHeadings(html string) []Heading {
	headings := []Heading{}
	for pos := 0; pos < len(html); {
		m := headingOpen.FindStringSubmatchIndex(html[pos:])
		if m == nil {
			break
		}
		start, bodyStart := pos+m[0], pos+m[1]
		level := int(html[pos+m[2]] - '0')

		line := html[bodyStart:]
		if eol := strings.IndexAny(line, "\n\r\u2028\u2029"); eol >= 0 {
			line = line[:eol]
		}
		end := headingCloses[level-1].FindStringIndex(line)
		if end == nil {
			// no match starting here; retry from the next byte
			pos = start + 1
			continue
		}

		headings = append(headings, Heading{Level: level, Text: ExtractText(line[:end[0]])})
		pos = bodyStart + end[1]
	}
	return headings
}

// ExtractImages returns one entry per <img> tag with its alt text, if any.
func ExtractImages(html string) []Image {
	tags := imgPattern.FindAllString(html, -1)
	images := make([]Image, 0, len(tags))
	for _, tag := range tags {
		var img Image
		if m := altPattern.FindStringSubmatch(tag); m != nil {
			img.Alt = m[1]
		}
		images = append(images, img)
	}
	return images
}

// ExtractLinks returns the href and text of every anchor with an href.
func ExtractLinks(html string) []Link {
	matches := linkPattern.FindAllStringSubmatch(html, -1)
	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		links = append(links, Link{URL: m[1], Text: ExtractText(m[2])})
	}
	return links
}

// SplitSentences splits text on sentence terminators and drops blank pieces.
func SplitSentences(text string) []string {
	var sentences []string
	for _, part := range sentenceSeps.Split(text, -1) {
		if s := strings.TrimSpace(part); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// FirstParagraph returns text up to the first blank line or ". ". Without
// such a break, or when the break is at the very start, it falls back to the
// first 200 characters.
func FirstParagraph(text string) string {
	cut := -1
	for _, sep := range []string{"\n\n", ". "} {
		if i := strings.Index(text, sep); i >= 0 && (cut < 0 || i < cut) {
			cut = i
		}
	}
	if cut > 0 {
		return text[:cut]
	}
	return truncateRunes(text, firstParagraphLimit)
}

// IsInternalLink reports whether url is presumed to stay on the same site.
// An empty hostname never matches by host.
func IsInternalLink(url, hostname string) bool {
	if strings.HasPrefix(url, "/") {
		return true
	}
	if hostname != "" && strings.Contains(url, hostname) {
		return true
	}
	return !strings.HasPrefix(url, "http")
}

// WordCount counts whitespace separated tokens of the normalized text.
func WordCount(text string) int {
	return len(strings.Fields(NormalizeText(text)))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isWordRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// charLength measures s in UTF-16 code units, the unit browsers use for
// form field lengths.
func charLength(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}
