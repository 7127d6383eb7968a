package search

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/unicode/norm"
)

// ErrUnknownEngine is returned by CompilerFor for unsupported engine names.
var ErrUnknownEngine = errors.New("unknown regex engine")

// Matcher reports whether a display line contains a hit.
type Matcher interface {
	MatchString(line string) bool
	String() string
}

// Compiler turns a query typed at the search prompt into a Matcher.
type Compiler interface {
	Compile(pattern string) (Matcher, error)
}

// RegexpCompiler compiles queries with the standard RE2 engine.
type RegexpCompiler struct {
	// SmartCase makes all-lowercase queries case-insensitive.
	SmartCase bool
}

func (c RegexpCompiler) Compile(pattern string) (Matcher, error) {
	pattern = prepareQuery(pattern, c.SmartCase)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return re, nil
}

// regexp2MatchTimeout bounds a single line match so a catastrophic pattern
// cannot stall the dispatcher.
const regexp2MatchTimeout = 250 * time.Millisecond

// Regexp2Compiler compiles queries with a backtracking engine that supports
// lookaround and backreferences.
type Regexp2Compiler struct {
	SmartCase bool
}

func (c Regexp2Compiler) Compile(pattern string) (Matcher, error) {
	pattern = prepareQuery(pattern, c.SmartCase)
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = regexp2MatchTimeout
	return regexp2Matcher{re: re}, nil
}

type regexp2Matcher struct {
	re *regexp2.Regexp
}

func (m regexp2Matcher) MatchString(line string) bool {
	ok, err := m.re.MatchString(line)
	return err == nil && ok
}

func (m regexp2Matcher) String() string {
	return m.re.String()
}

// CompilerFor maps a configuration name to a Compiler.
func CompilerFor(engine string, smartCase bool) (Compiler, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", "re2", "regexp":
		return RegexpCompiler{SmartCase: smartCase}, nil
	case "pcre", "regexp2":
		return Regexp2Compiler{SmartCase: smartCase}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

func prepareQuery(query string, smartCase bool) string {
	query = norm.NFC.String(query)
	if smartCase && smartCaseInsensitive(query) {
		return "(?i)" + query
	}
	return query
}

func smartCaseInsensitive(query string) bool {
	for _, r := range query {
		if unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
