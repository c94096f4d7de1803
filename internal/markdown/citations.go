// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"regexp"
	"strings"
)

// Answers arrive with source references wrapped in citation tags:
//
//	<citation>[1](https://www.csusb.edu/housing)</citation>
//
// The payload inside the tag is already a markdown link, so rendering only
// needs the wrapper stripped. A trailing space is kept after each link so
// consecutive citations do not run together.
var citationPattern = regexp.MustCompile(`<citation>(\[\d+\]\(https?://[^)]+\))</citation>`)

// ConvertCitations rewrites citation tags into plain markdown links.
// Text without citations passes through unchanged.
func ConvertCitations(text string) string {
	if !strings.Contains(text, "<citation>") {
		return text
	}
	converted := citationPattern.ReplaceAllString(text, "$1 ")
	return strings.TrimSpace(converted)
}
