package chat

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var defaultWords = []string{
	"damn", "hell", "shit", "fuck", "bitch", "ass", "bastard", "crap", "piss",
	"dick", "cock", "pussy", "whore", "slut", "dumbass", "jackass",
	"motherfucker", "asshole", "bullshit", "stupid", "idiot", "moron", "wtf",
	"fck", "bloody", "bugger", "prick", "twat", "cunt", "wanker", "bollocks",
	"tosser", "pillock", "bsdk", "madarchod", "behenchod", "bhenchod", "chutiya",
	"gandu", "harami", "haramzada", "kamina", "kameena", "kutta", "kutte",
	"ullu", "pagal", "nalayak", "bevakoof", "tatti", "porn", "nude", "xxx",
	"f*ck", "f**k", "sh*t", "b*tch", "a**hole", "d*mn", "fuk", "fuq", "shyt",
	"phuck", "biatch", "f0ck", "sh1t", "b1tch", "a55hole", "fvck", "cvnt",
}

// Filter masks listed words with asterisks of the same length. Matching is
// case-insensitive and only on whole words, so "class" keeps its "ass".
type Filter struct {
	re *regexp.Regexp
}

func NewFilter(words ...string) *Filter {
	if len(words) == 0 {
		words = defaultWords
	}
	sorted := append([]string(nil), words...)
	// longest first so "asshole" wins over "ass"
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, 0, len(sorted))
	for _, w := range sorted {
		if w = strings.TrimSpace(w); w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	return &Filter{re: regexp.MustCompile(`(?i)(^|[^\pL\pN_])(` + strings.Join(quoted, "|") + `)([^\pL\pN_]|$)`)}
}

func (f *Filter) Clean(msg string) string {
	if msg == "" {
		return msg
	}
	// Adjacent matches share a separator, so run until stable.
	for {
		out := f.re.ReplaceAllStringFunc(msg, func(m string) string {
			sub := f.re.FindStringSubmatch(m)
			return sub[1] + strings.Repeat("*", utf8.RuneCountInString(sub[2])) + sub[3]
		})
		if out == msg {
			return out
		}
		msg = out
	}
}
