// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

package parser

import "strings"

// Delimiters separate tokens. Runs of delimiters count as one separator.
const Delimiters = " \t\r\n\v"

// Span is a half-open byte range [Start, End) of a command line.
type Span struct {
	Start, End int
}

// Text returns the part of line covered by s.
func (s Span) Text(line string) string {
	return line[s.Start:s.End]
}

func isDelim(c byte) bool {
	return strings.IndexByte(Delimiters, c) >= 0
}

// nextToken skips delimiters from line[from:] and returns the maximal run
// of non-delimiters that follows, staying within line[:to].
func nextToken(line string, from, to int) (Span, bool) {
	for from < to && isDelim(line[from]) {
		from++
	}
	if from == to {
		return Span{}, false
	}
	end := from
	for end < to && !isDelim(line[end]) {
		end++
	}
	return Span{Start: from, End: end}, true
}

// Tokens returns the spans of all tokens in line.
func Tokens(line string) []Span {
	var spans []Span
	for from := 0; ; {
		tok, ok := nextToken(line, from, len(line))
		if !ok {
			return spans
		}
		spans = append(spans, tok)
		from = tok.End
	}
}

// Fields splits line into tokens. Operators are not treated specially.
func Fields(line string) []string {
	spans := Tokens(line)
	fields := make([]string, len(spans))
	for i, s := range spans {
		fields[i] = s.Text(line)
	}
	return fields
}

// Trim removes leading and trailing delimiters.
func Trim(line string) string {
	return strings.Trim(line, Delimiters)
}
