package runtime

import "strings"

// maxSubstitutions bounds a single Resolve call when a value expands into
// placeholders that keep producing more placeholders.
const maxSubstitutions = 10000

type delimiter struct {
	open   string
	close  string
	output bool
}

var delimiters = []delimiter{
	{open: "${", close: "}", output: true},
	{open: "$(", close: ")"},
}

// Resolve substitutes ${name} with the named output and $(name) with the named
// input until no placeholder is left. Each substitution restarts the scan, so
// values containing placeholders are resolved too. Missing values resolve to
// the empty string and unterminated openers are kept literally.
func Resolve(text string, src ValueSource) string {
	if text == "" {
		return text
	}
	for n := 0; n < maxSubstitutions; n++ {
		next, ok := substituteFirst(text, src)
		if !ok {
			return text
		}
		text = next
	}
	return text
}

func substituteFirst(text string, src ValueSource) (string, bool) {
	from := 0
	for from < len(text) {
		pos, d := nextOpener(text, from)
		if pos < 0 {
			return text, false
		}

		start := pos + len(d.open)
		end := strings.Index(text[start:], d.close)
		if end < 0 {
			from = start
			continue
		}

		name := text[start : start+end]
		return text[:pos] + lookup(src, d, name) + text[start+end+len(d.close):], true
	}
	return text, false
}

// nextOpener returns the earliest opener at or after from.
func nextOpener(text string, from int) (int, delimiter) {
	best := -1
	var found delimiter
	for _, d := range delimiters {
		i := strings.Index(text[from:], d.open)
		if i < 0 {
			continue
		}
		if best < 0 || from+i < best {
			best = from + i
			found = d
		}
	}
	return best, found
}

func lookup(src ValueSource, d delimiter, name string) string {
	if src == nil {
		return ""
	}
	if d.output {
		return src.Output(name)
	}
	return src.Input(name)
}

// ResolveOptions resolves every option value.
func ResolveOptions(opts map[string]string, src ValueSource) Options {
	if len(opts) == 0 {
		return Options{}
	}
	resolved := make(Options, len(opts))
	for k, v := range opts {
		resolved[k] = Resolve(v, src)
	}
	return resolved
}
