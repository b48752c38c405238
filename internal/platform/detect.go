// Package platform recognizes which ATS backs a careers page. Detection is
// pure: URL substrings first, HTML content markers as a fallback, and
// PlatformUnknown when nothing matches. No match is not an error.
package platform

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobfeed-engine/internal/domain"
)

type urlSignature struct {
	tag       domain.PlatformTag
	fragments []string
}

// URL fast path. Ordered; first hit wins.
var urlSignatures = []urlSignature{
	{domain.PlatformEmply, []string{"emply.com", "emply.net"}},
	{domain.PlatformSuccessFactors, []string{"successfactors.com", "successfactors.eu", "sapsf."}},
	{domain.PlatformGreenhouse, []string{"greenhouse.io", "gh_jid="}},
	{domain.PlatformWorkday, []string{"myworkdayjobs.com", "myworkdaysite.com", "wd3.myworkday", "workday.com"}},
	{domain.PlatformLever, []string{"lever.co", "jobs.lever"}},
}

// Detect resolves the platform behind a careers URL. html is optional: when
// the URL alone is ambiguous (a branded domain fronting an ATS embed), the
// fetched page can still carry platform markers.
func Detect(rawURL, html string) domain.PlatformTag {
	low := strings.ToLower(strings.TrimSpace(rawURL))
	for _, sig := range urlSignatures {
		for _, frag := range sig.fragments {
			if strings.Contains(low, frag) {
				return sig.tag
			}
		}
	}
	if html != "" {
		return detectHTML(html)
	}
	return domain.PlatformUnknown
}

// Content markers known to appear in each platform's rendered or embedded
// HTML. Selector checks run first (cheap to miss), then raw substrings for
// markers that live inside script bodies.
func detectHTML(html string) domain.PlatformTag {
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		switch {
		case doc.Find("#grnhse_app, #grnhse_iframe").Length() > 0:
			return domain.PlatformGreenhouse
		case doc.Find("[data-emply-portal], [data-section-id][data-emply]").Length() > 0:
			return domain.PlatformEmply
		case doc.Find(".lever-jobs-embed, [data-qa='posting']").Length() > 0:
			return domain.PlatformLever
		}
	}

	low := strings.ToLower(html)
	switch {
	case strings.Contains(low, "boards.greenhouse.io") || strings.Contains(low, "grnhse"):
		return domain.PlatformGreenhouse
	case strings.Contains(low, "emply.com") || strings.Contains(low, "emply-portal"):
		return domain.PlatformEmply
	case strings.Contains(low, "myworkdayjobs") || strings.Contains(low, "workday"):
		return domain.PlatformWorkday
	case strings.Contains(low, "successfactors"):
		return domain.PlatformSuccessFactors
	case strings.Contains(low, "lever.co"):
		return domain.PlatformLever
	}
	return domain.PlatformUnknown
}
