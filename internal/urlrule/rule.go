// Package urlrule compiles user-supplied URL conversion rules and classifies
// URLs against them.
package urlrule

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/gobwas/glob"
)

var (
	// ErrInvalidPattern marks a rule whose pattern does not compile or that
	// does not declare exactly one pattern kind.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrEmptyBlockTypes marks a rule whose convert_to list contains no
	// recognized block type.
	ErrEmptyBlockTypes = errors.New("no valid block types in convert_to")

	// ErrExpectation marks a rule that failed its expect_matches or
	// expect_no_matches self-check.
	ErrExpectation = errors.New("pattern expectation failed")
)

// BlockType is one output form a matched URL converts into.
type BlockType int

const (
	// Link renders the URL as an inline link span inside the current paragraph.
	Link BlockType = iota
	// Bookmark renders the URL as a standalone bookmark block.
	Bookmark
	// Embed renders the URL as a standalone embed block.
	Embed
)

func (t BlockType) String() string {
	switch t {
	case Link:
		return "link"
	case Bookmark:
		return "bookmark"
	case Embed:
		return "embed"
	default:
		return fmt.Sprintf("BlockType(%d)", int(t))
	}
}

// Standalone reports whether the type cannot live inside running text and
// therefore forces a paragraph flush in the assembler.
func (t BlockType) Standalone() bool {
	return t == Bookmark || t == Embed
}

// parseBlockType maps a convert_to tag to a BlockType. Unknown tags are
// reported to the caller so they can be skipped with a warning.
func parseBlockType(s string) (BlockType, bool) {
	switch s {
	case "link":
		return Link, true
	case "bookmark":
		return Bookmark, true
	case "embed":
		return Embed, true
	default:
		return 0, false
	}
}

// RuleConfig is one rule as it appears in the configuration file. Exactly one
// of Glob, Regex, or Prefix must be set.
type RuleConfig struct {
	Glob            string   `yaml:"glob"`
	Regex           string   `yaml:"regex"`
	Prefix          string   `yaml:"prefix"`
	ConvertTo       []string `yaml:"convert_to"`
	ExpectMatches   []string `yaml:"expect_matches"`
	ExpectNoMatches []string `yaml:"expect_no_matches"`
}

// PatternKinds returns how many pattern kinds the rule declares.
func (r RuleConfig) PatternKinds() int {
	n := 0
	for _, p := range []string{r.Glob, r.Regex, r.Prefix} {
		if p != "" {
			n++
		}
	}
	return n
}

type matcherKind int

const (
	matchGlob matcherKind = iota
	matchRegex
	matchPrefix
)

// Matcher is a compiled URL predicate. It is constructed only from a
// syntactically valid pattern; Match never fails.
type Matcher struct {
	kind    matcherKind
	glob    glob.Glob
	re      *regexp.Regexp
	prefix  string
	pattern string
}

// Match reports whether url satisfies the pattern.
func (m Matcher) Match(url string) bool {
	switch m.kind {
	case matchGlob:
		return m.glob.Match(url)
	case matchRegex:
		return m.re.MatchString(url)
	default:
		return strings.HasPrefix(url, m.prefix)
	}
}

func (m Matcher) String() string {
	switch m.kind {
	case matchGlob:
		return "glob:" + m.pattern
	case matchRegex:
		return "regex:" + m.pattern
	default:
		return "prefix:" + m.pattern
	}
}

// NewGlobMatcher compiles a glob pattern.
func NewGlobMatcher(pattern string) (Matcher, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return Matcher{}, fmt.Errorf("%w: glob %q: %v", ErrInvalidPattern, pattern, err)
	}
	return Matcher{kind: matchGlob, glob: g, pattern: pattern}, nil
}

// NewRegexMatcher compiles a regular expression pattern.
func NewRegexMatcher(pattern string) (Matcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Matcher{}, fmt.Errorf("%w: regex %q: %v", ErrInvalidPattern, pattern, err)
	}
	return Matcher{kind: matchRegex, re: re, pattern: pattern}, nil
}

// NewPrefixMatcher builds a literal-prefix matcher.
func NewPrefixMatcher(prefix string) Matcher {
	return Matcher{kind: matchPrefix, prefix: prefix, pattern: prefix}
}

// Rule is one compiled rule.
type Rule struct {
	Matcher    Matcher
	BlockTypes []BlockType
}

// CompiledRules is an immutable, ordered rule set. It is safe for concurrent
// use once constructed.
type CompiledRules struct {
	rules        []Rule
	defaultTypes []BlockType
}

// Compile builds a CompiledRules from configuration. Rules keep their
// declaration order. Unrecognized convert_to tags are skipped with a warning;
// a rule left with zero block types, an invalid pattern, or a failed
// expectation aborts compilation.
func Compile(configs []RuleConfig, defaultConvertTo []string) (*CompiledRules, error) {
	compiled := make([]Rule, 0, len(configs))

	for i, rc := range configs {
		if rc.PatternKinds() != 1 {
			return nil, fmt.Errorf("%w: rule %d must set exactly one of glob, regex, prefix", ErrInvalidPattern, i)
		}

		var (
			m   Matcher
			err error
		)
		switch {
		case rc.Glob != "":
			m, err = NewGlobMatcher(rc.Glob)
		case rc.Regex != "":
			m, err = NewRegexMatcher(rc.Regex)
		default:
			m = NewPrefixMatcher(rc.Prefix)
		}
		if err != nil {
			return nil, err
		}

		types := parseBlockTypes(rc.ConvertTo)
		if len(types) == 0 {
			return nil, fmt.Errorf("%w for pattern %s", ErrEmptyBlockTypes, m)
		}

		for _, url := range rc.ExpectMatches {
			if !m.Match(url) {
				return nil, fmt.Errorf("%w: %s expected to match %q but did not", ErrExpectation, m, url)
			}
		}
		for _, url := range rc.ExpectNoMatches {
			if m.Match(url) {
				return nil, fmt.Errorf("%w: %s expected NOT to match %q but it did", ErrExpectation, m, url)
			}
		}

		compiled = append(compiled, Rule{Matcher: m, BlockTypes: types})
	}

	return &CompiledRules{
		rules:        compiled,
		defaultTypes: parseBlockTypes(defaultConvertTo),
	}, nil
}

func parseBlockTypes(tags []string) []BlockType {
	var out []BlockType
	for _, s := range tags {
		t, ok := parseBlockType(s)
		if !ok {
			slog.Warn("unknown block type in convert_to, skipping", slog.String("block_type", s))
			continue
		}
		out = append(out, t)
	}
	return out
}

// Classify returns the block types for url: the first matching rule wins, and
// a URL matching no rule gets the default types (possibly empty).
func (c *CompiledRules) Classify(url string) []BlockType {
	for _, r := range c.rules {
		if r.Matcher.Match(url) {
			return r.BlockTypes
		}
	}
	return c.defaultTypes
}

// Len returns the number of compiled rules.
func (c *CompiledRules) Len() int { return len(c.rules) }

// Rules is an atomically swappable handle around a CompiledRules, used for
// hot-reloading. Readers take a snapshot with Load and keep using it for the
// whole operation; Store publishes a freshly compiled set.
type Rules struct {
	p atomic.Pointer[CompiledRules]
}

// NewRules wraps an initial compiled rule set.
func NewRules(c *CompiledRules) *Rules {
	r := &Rules{}
	r.p.Store(c)
	return r
}

// Load returns the current rule set snapshot.
func (r *Rules) Load() *CompiledRules { return r.p.Load() }

// Store swaps in a new rule set.
func (r *Rules) Store(c *CompiledRules) { r.p.Store(c) }
