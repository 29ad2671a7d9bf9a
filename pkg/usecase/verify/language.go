package verify

import (
	"unicode"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/text/language"
)

var ErrUnsupportedScript = goerr.New("no unicode range for script")

// ISO 15924 codes to unicode range tables. Han variants and the Japanese and
// Korean mixed scripts are folded to the scripts their text must contain.
var scriptTables = map[string][]*unicode.RangeTable{
	"Hani": {unicode.Han},
	"Hans": {unicode.Han},
	"Hant": {unicode.Han},
	"Jpan": {unicode.Han, unicode.Hiragana, unicode.Katakana},
	"Kore": {unicode.Hangul, unicode.Han},
	"Hang": {unicode.Hangul},
	"Latn": {unicode.Latin},
	"Cyrl": {unicode.Cyrillic},
	"Arab": {unicode.Arabic},
	"Hebr": {unicode.Hebrew},
	"Grek": {unicode.Greek},
	"Thai": {unicode.Thai},
	"Deva": {unicode.Devanagari},
}

// Script is the set of characters that marks text as written in the
// target language
type Script struct {
	Tag    language.Tag
	Code   string
	tables []*unicode.RangeTable
}

// ParseScript resolves a BCP-47 tag such as zh-TW to its likely script
func ParseScript(tag string) (*Script, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid language tag", goerr.V("tag", tag))
	}

	script, _ := t.Script()
	tables, ok := scriptTables[script.String()]
	if !ok {
		return nil, goerr.Wrap(ErrUnsupportedScript, "cannot check language", goerr.V("tag", tag), goerr.V("script", script.String()))
	}

	return &Script{Tag: t, Code: script.String(), tables: tables}, nil
}

// Contains reports whether text has at least one character of the script
func (s *Script) Contains(text string) bool {
	for _, r := range text {
		if unicode.IsOneOf(s.tables, r) {
			return true
		}
	}
	return false
}
