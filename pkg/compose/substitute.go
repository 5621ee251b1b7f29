package compose

import (
	"regexp"
	"sync"
)

var placeholderCache sync.Map // variable name -> *regexp.Regexp

// braceSpace is the whitespace tolerated inside the braces. It follows the
// ECMAScript \s class, which is wider than RE2's.
const braceSpace = `[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]*`

// Substitute replaces every {{ variable }} token in code with value.
// Whitespace inside the braces is ignored, Unicode spaces included; the
// variable name must match exactly. The value is inserted literally.
func Substitute(code, variable, value string) string {
	if variable == "" {
		return code
	}
	return placeholderPattern(variable).ReplaceAllLiteralString(code, value)
}

func placeholderPattern(variable string) *regexp.Regexp {
	if cached, ok := placeholderCache.Load(variable); ok {
		return cached.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`\{\{` + braceSpace + regexp.QuoteMeta(variable) + braceSpace + `\}\}`)
	actual, _ := placeholderCache.LoadOrStore(variable, re)
	return actual.(*regexp.Regexp)
}
