package scorer

import "fmt"

// Rating maps a score to the display band shown next to it.
func Rating(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Fair"
	default:
		return "Poor"
	}
}

// Recommendations lists the fixes that would raise the score of report.
func Recommendations(report *Report) []string {
	if report == nil {
		return nil
	}
	var recs []string
	sig := report.Signals

	switch p := report.Points(RuleTitle); {
	case p < 0:
		recs = append(recs, "Add a title to the post")
	case p < 15:
		recs = append(recs, fmt.Sprintf("Adjust the title length to %d-%d characters", titleMinLen, titleMaxLen))
	}

	switch p := report.Points(RuleMetaTitle); {
	case p < 0:
		recs = append(recs, "Add a meta title")
	case p == 5:
		recs = append(recs, fmt.Sprintf("Write a dedicated meta title of %d-%d characters", titleMinLen, titleMaxLen))
	}

	switch p := report.Points(RuleMetaDescription); {
	case p < 0:
		recs = append(recs, "Add a meta description")
	case p < 10:
		recs = append(recs, fmt.Sprintf("Meta description should be %d-%d characters", descriptionMinLen, descriptionMaxLen))
	}

	switch p := report.Points(RuleExcerpt); {
	case p < 0:
		recs = append(recs, "Add an excerpt")
	case p < 5:
		recs = append(recs, fmt.Sprintf("Excerpt should be %d-%d characters", descriptionMinLen, descriptionMaxLen))
	}

	if sig.WordCount < 300 {
		recs = append(recs, "Add more content (aim for at least 300 words)")
	} else if sig.WordCount < 1000 {
		recs = append(recs, "Long-form posts of 1000+ words tend to rank better")
	}

	switch p := report.Points(RuleHeadings); {
	case p < 0:
		recs = append(recs, "Add an H1 heading")
	case p == 3:
		recs = append(recs, "Multiple H1 headings found - consider using only one")
	case p < 10:
		recs = append(recs, "Structure the content with H2 subheadings")
	}

	switch p := report.Points(RuleFeaturedImage); {
	case p < 0:
		recs = append(recs, "Add a featured image")
	case p < 8:
		recs = append(recs, "Add alt text to the featured image")
	}

	if report.Points(RuleContentImages) == 2 {
		recs = append(recs, "Add alt text to all images in the content")
	}
	if report.Points(RuleCategory) < 0 {
		recs = append(recs, "Assign a category")
	}
	if report.Points(RuleTags) < 3 {
		recs = append(recs, "Add at least 3 tags")
	}
	if report.Evaluated(RuleInternalLinks) && report.Points(RuleInternalLinks) < 7 {
		recs = append(recs, fmt.Sprintf("Link to 3-10 related posts (current: %d)", sig.InternalLinks))
	}
	if report.Points(RuleReadability) < 5 {
		recs = append(recs, "Shorten sentences to 20 words or fewer on average")
	}

	if report.Evaluated(RuleKeywordTitle) {
		for _, r := range report.Rules {
			if r.Points == 0 && r.Rule != RuleKeywordDensity && isKeywordRule(r.Rule) {
				recs = append(recs, "Use the focus keyword: "+r.Message)
			}
		}
		if report.Points(RuleKeywordDensity) == 0 {
			recs = append(recs, fmt.Sprintf("Keep focus keyword density between %.1f%% and %.1f%% (current: %.2f%%)",
				minDensity, maxDensity, sig.KeywordDensity))
		}
	} else {
		recs = append(recs, "Set a focus keyword")
	}

	return recs
}

func isKeywordRule(r Rule) bool {
	switch r {
	case RuleKeywordTitle, RuleKeywordMetaTitle, RuleKeywordHeading,
		RuleKeywordFirstParagraph, RuleKeywordDescription, RuleKeywordDensity:
		return true
	}
	return false
}
