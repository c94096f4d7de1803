// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// HighlightCode applies syntax highlighting to a fenced code block using
// chroma. Used when answers are rendered without the full glamour pipeline,
// such as in the plain CLI chat or when markdown rendering is disabled.
// Falls back to the raw code on any failure.
func HighlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// HighlightFences rewrites each fenced code block in text with highlighted
// output, leaving the surrounding prose untouched.
func HighlightFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}

	var out strings.Builder
	rest := text
	for {
		start := strings.Index(rest, "```")
		if start < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:start])
		rest = rest[start+3:]

		nl := strings.IndexByte(rest, '\n')
		if nl < 0 {
			out.WriteString("```")
			out.WriteString(rest)
			break
		}
		language := strings.TrimSpace(rest[:nl])
		rest = rest[nl+1:]

		end := strings.Index(rest, "```")
		if end < 0 {
			// Unterminated fence, likely still streaming. Leave as-is.
			out.WriteString("```")
			out.WriteString(language)
			out.WriteString("\n")
			out.WriteString(rest)
			break
		}
		out.WriteString(HighlightCode(rest[:end], language))
		rest = rest[end+3:]
	}
	return out.String()
}
