// Copyright 2026 The Azadi Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package eval

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Case names one of the case-conversion target styles.
type Case int

const (
	CaseLower Case = iota
	CaseUpper
	CaseSnake
	CaseScreaming
	CaseKebab
	CaseScreamingKebab
	CaseCamel
	CasePascal
	CaseAda
)

// ParseCase maps a case-style name (as used by `convert_case`/`to_*_case`)
// to a Case constant.
func ParseCase(s string) (Case, error) {
	switch strings.ToLower(s) {
	case "lower", "lowercase":
		return CaseLower, nil
	case "upper", "uppercase":
		return CaseUpper, nil
	case "snake", "snake_case":
		return CaseSnake, nil
	case "screaming", "screaming_snake", "screaming_snake_case":
		return CaseScreaming, nil
	case "kebab", "kebab-case":
		return CaseKebab, nil
	case "screaming-kebab", "screaming-kebab-case":
		return CaseScreamingKebab, nil
	case "camel", "camelcase":
		return CaseCamel, nil
	case "pascal", "pascalcase":
		return CasePascal, nil
	case "ada", "ada_case":
		return CaseAda, nil
	default:
		return 0, fmt.Errorf("unknown case style: %s", s)
	}
}

func isBoundaryChar(r rune) bool {
	return r == '_' || r == '-' || unicode.IsSpace(r)
}

func isWordBoundary(prev rune, hasPrev bool, curr rune, next rune, hasNext bool) bool {
	if isBoundaryChar(curr) {
		return true
	}
	if hasPrev && hasNext && unicode.IsUpper(prev) && unicode.IsUpper(curr) && unicode.IsLower(next) {
		return true
	}
	if hasPrev && unicode.IsLower(prev) && unicode.IsUpper(curr) {
		return true
	}
	if hasPrev && isASCIIAlpha(prev) && isASCIIDigit(curr) {
		return true
	}
	if hasPrev && isASCIIDigit(prev) && isASCIIAlpha(curr) {
		return true
	}
	return false
}

func isASCIIAlpha(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

// splitWords breaks input into words at delimiter runs (_, -, whitespace),
// acronym boundaries (XMLHttp -> XML, Http), camel-case boundaries
// (camelCase -> camel, Case), and letter/digit transitions.
func splitWords(input string) []string {
	runes := []rune(input)
	var words []string
	i := 0
	for i < len(runes) {
		for i < len(runes) && isBoundaryChar(runes[i]) {
			i++
		}
		if i >= len(runes) {
			break
		}
		start := i
		j := i + 1
		for j < len(runes) {
			var next rune
			hasNext := j+1 < len(runes)
			if hasNext {
				next = runes[j+1]
			}
			if isWordBoundary(runes[j-1], true, runes[j], next, hasNext) {
				break
			}
			j++
		}
		words = append(words, string(runes[start:j]))
		i = j
	}
	return words
}

var capCaser = cases.Title(language.Und)

func capitalizeWord(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))
}

// ConvertCase re-joins the words found in input according to style.
func ConvertCase(input string, style Case) string {
	words := splitWords(input)
	if len(words) == 0 {
		return ""
	}

	switch style {
	case CaseLower:
		return strings.ToLower(strings.Join(words, ""))
	case CaseUpper:
		return strings.ToUpper(strings.Join(words, ""))
	case CaseSnake:
		return joinLower(words, "_")
	case CaseScreaming:
		return joinUpper(words, "_")
	case CaseKebab:
		return joinLower(words, "-")
	case CaseScreamingKebab:
		return joinUpper(words, "-")
	case CaseCamel:
		var b strings.Builder
		for i, w := range words {
			if i == 0 {
				b.WriteString(strings.ToLower(w))
			} else {
				b.WriteString(capitalizeWord(w))
			}
		}
		return b.String()
	case CasePascal:
		parts := make([]string, len(words))
		for i, w := range words {
			parts[i] = capitalizeWord(w)
		}
		return strings.Join(parts, "")
	case CaseAda:
		parts := make([]string, len(words))
		for i, w := range words {
			parts[i] = capitalizeWord(w)
		}
		return strings.Join(parts, "_")
	default:
		return strings.Join(words, "")
	}
}

func joinLower(words []string, sep string) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = strings.ToLower(w)
	}
	return strings.Join(parts, sep)
}

func joinUpper(words []string, sep string) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = strings.ToUpper(w)
	}
	return strings.Join(parts, sep)
}

// ConvertCaseStr parses styleName and applies ConvertCase, for the
// `convert_case(text, style)` builtin.
func ConvertCaseStr(input, styleName string) (string, error) {
	c, err := ParseCase(styleName)
	if err != nil {
		return "", err
	}
	return ConvertCase(input, c), nil
}

// Capitalize upper-cases the first rune of s and lower-cases the rest,
// Unicode-aware via golang.org/x/text/cases, for the `capitalize` builtin.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	first := capCaser.String(string(r[0]))
	return first + strings.ToLower(string(r[1:]))
}

// Decapitalize lower-cases the first rune of s, leaving the rest untouched,
// for the `decapitalize` builtin.
func Decapitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToLower(string(r[0])) + string(r[1:])
}
