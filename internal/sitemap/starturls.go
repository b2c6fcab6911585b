package sitemap

import (
	"fmt"
	"regexp"
	"strconv"
)

// Start-URL patterns may carry one numeric range: [start-stop] or
// [start-stop:step]. The range is inclusive and zero-padded to the start
// token's width when start and stop have the same width.
var startURLRangeRE = regexp.MustCompile(`^(.*?)\[(\d+)-(\d+)(?::(\d+))?\](.*)$`)

// looksLikeRange flags bracket groups that were probably meant as a range
// so malformed ones surface at load time instead of being crawled verbatim.
var looksLikeRangeRE = regexp.MustCompile(`\[[^\]]*-[^\]]*\]`)

// ExpandStartURLs expands every configured start URL into the concrete seed
// URLs, in order.
func (m *Sitemap) ExpandStartURLs() []string {
	var out []string
	for _, u := range m.StartURLs {
		out = append(out, expandStartURL(u)...)
	}
	return out
}

func expandStartURL(u string) []string {
	match := startURLRangeRE.FindStringSubmatch(u)
	if match == nil {
		return []string{u}
	}
	prefix, startStr, stopStr, stepStr, suffix := match[1], match[2], match[3], match[4], match[5]

	start, _ := strconv.Atoi(startStr)
	stop, _ := strconv.Atoi(stopStr)
	step := 1
	if stepStr != "" {
		step, _ = strconv.Atoi(stepStr)
		if step <= 0 {
			step = 1
		}
	}

	width := 1
	if len(startStr) == len(stopStr) {
		width = len(startStr)
	}

	var out []string
	for i := start; i <= stop; i += step {
		out = append(out, fmt.Sprintf("%s%0*d%s", prefix, width, i, suffix))
	}
	return out
}

// validateStartURL rejects URLs whose bracket group looks like a range but
// does not parse as one.
func validateStartURL(u string) error {
	if looksLikeRangeRE.MatchString(u) && !startURLRangeRE.MatchString(u) {
		return fmt.Errorf("malformed start-url range in %q", u)
	}
	return nil
}
