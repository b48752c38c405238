package platform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jobfeed-engine/internal/domain"
	"jobfeed-engine/internal/platform"
)

func TestDetectByURL(t *testing.T) {
	cases := []struct {
		url  string
		want domain.PlatformTag
	}{
		{"https://boards.greenhouse.io/acme", domain.PlatformGreenhouse},
		{"https://job-boards.greenhouse.io/acme", domain.PlatformGreenhouse},
		{"https://acme.emply.com/careers", domain.PlatformEmply},
		{"https://acme.wd3.myworkdayjobs.com/en-US/External", domain.PlatformWorkday},
		{"https://jobs.lever.co/acme", domain.PlatformLever},
		{"https://career5.successfactors.eu/career?company=acme", domain.PlatformSuccessFactors},
		{"https://www.acme.com/careers", domain.PlatformUnknown},
		{"", domain.PlatformUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, platform.Detect(tc.url, ""), "url=%s", tc.url)
	}
}

func TestDetectByHTMLFallback(t *testing.T) {
	cases := []struct {
		name string
		html string
		want domain.PlatformTag
	}{
		{"greenhouse embed div", `<html><body><div id="grnhse_app"></div></body></html>`, domain.PlatformGreenhouse},
		{"greenhouse script src", `<script src="https://boards.greenhouse.io/embed/job_board/js?for=acme"></script>`, domain.PlatformGreenhouse},
		{"emply marker", `<div data-emply-portal="true"></div>`, domain.PlatformEmply},
		{"workday script body", `<script>var u="https://acme.wd3.myworkdayjobs.com";</script>`, domain.PlatformWorkday},
		{"nothing", `<html><body><h1>Join us</h1></body></html>`, domain.PlatformUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, platform.Detect("https://careers.acme.com", tc.html))
		})
	}
}

func TestDetectURLWinsOverHTML(t *testing.T) {
	got := platform.Detect("https://boards.greenhouse.io/acme", `<div data-emply-portal="true"></div>`)
	assert.Equal(t, domain.PlatformGreenhouse, got)
}
