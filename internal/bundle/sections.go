package bundle

import (
	"regexp"
	"strings"
)

// Sections is the model reply split into its requested headings.
// Missing headings are left empty.
type Sections struct {
	RootCause          string `json:"root_cause"`
	Impact             string `json:"impact"`
	TechnicalDetails   string `json:"technical_details"`
	AffectedComponents string `json:"affected_components"`
	ImmediateFix       string `json:"immediate_fix"`
	Prevention         string `json:"prevention"`
	Monitoring         string `json:"monitoring"`
}

var sectionHeaders = []struct {
	pattern *regexp.Regexp
	field   func(*Sections) *string
}{
	{headerPattern("Root Cause"), func(s *Sections) *string { return &s.RootCause }},
	{headerPattern("Impact"), func(s *Sections) *string { return &s.Impact }},
	{headerPattern("Technical Details"), func(s *Sections) *string { return &s.TechnicalDetails }},
	{headerPattern("Affected Components"), func(s *Sections) *string { return &s.AffectedComponents }},
	{headerPattern("Immediate Fix"), func(s *Sections) *string { return &s.ImmediateFix }},
	{headerPattern("Prevention"), func(s *Sections) *string { return &s.Prevention }},
	{headerPattern("Monitoring"), func(s *Sections) *string { return &s.Monitoring }},
}

func headerPattern(title string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\*\*` + regexp.QuoteMeta(title) + `\*\*:?\s*`)
}

// ParseSections extracts each "**Heading**:" block. A block runs until the
// next line starting with "**" or the end of the text.
func ParseSections(text string) Sections {
	var s Sections
	for _, h := range sectionHeaders {
		loc := h.pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		body := text[loc[1]:]
		if end := strings.Index(body, "\n**"); end >= 0 {
			body = body[:end]
		}
		*h.field(&s) = strings.TrimSpace(body)
	}
	return s
}
