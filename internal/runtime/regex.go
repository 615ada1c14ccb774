// Package runtime provides regular expression support for RegExp
// literals.
package runtime

import (
	"fmt"
	"strings"
	"sync"

	"github.com/coregx/coregex"
)

// RegexConfig controls regex behavior.
type RegexConfig struct {
	// POSIX enables leftmost-longest matching. When false, matching is
	// leftmost-first, which is what scripts expect from a backtracking
	// engine.
	POSIX bool
}

// DefaultConfig returns the default leftmost-first configuration.
func DefaultConfig() RegexConfig {
	return RegexConfig{}
}

// Regex is a compiled RegExp literal.
type Regex struct {
	source string
	flags  string
	re     *coregex.Regexp

	Global     bool
	IgnoreCase bool
	Multiline  bool
	DotAll     bool
}

// Compile compiles a RegExp literal body and its flags with the default
// configuration.
func Compile(source, flags string) (*Regex, error) {
	return CompileWithConfig(source, flags, DefaultConfig())
}

// CompileWithConfig compiles a RegExp literal body and its flags. The
// flags g, i, m and s are accepted, each at most once.
func CompileWithConfig(source, flags string, config RegexConfig) (*Regex, error) {
	r := &Regex{source: source, flags: flags}
	for _, f := range flags {
		var seen *bool
		switch f {
		case 'g':
			seen = &r.Global
		case 'i':
			seen = &r.IgnoreCase
		case 'm':
			seen = &r.Multiline
		case 's':
			seen = &r.DotAll
		default:
			return nil, fmt.Errorf("invalid regular expression flags %q", flags)
		}
		if *seen {
			return nil, fmt.Errorf("invalid regular expression flags %q", flags)
		}
		*seen = true
	}

	var prefix strings.Builder
	if r.IgnoreCase || r.Multiline || r.DotAll {
		prefix.WriteString("(?")
		if r.IgnoreCase {
			prefix.WriteByte('i')
		}
		if r.Multiline {
			prefix.WriteByte('m')
		}
		if r.DotAll {
			prefix.WriteByte('s')
		}
		prefix.WriteByte(')')
	}
	re, err := coregex.Compile(prefix.String() + source)
	if err != nil {
		return nil, fmt.Errorf("invalid regular expression /%s/: %w", source, err)
	}
	if config.POSIX {
		re.Longest()
	}
	r.re = re
	return r, nil
}

// MustCompile compiles a regex, panicking on error.
func MustCompile(source, flags string) *Regex {
	re, err := Compile(source, flags)
	if err != nil {
		panic(err)
	}
	return re
}

// Source returns the pattern as written in the literal.
func (r *Regex) Source() string { return r.source }

// Flags returns the literal's flags.
func (r *Regex) Flags() string { return r.flags }

func (r *Regex) String() string { return "/" + r.source + "/" + r.flags }

// MatchString reports whether s contains any match.
func (r *Regex) MatchString(s string) bool {
	return r.re.MatchString(s)
}

// FindStringIndex returns the start and end of the first match at or
// after offset from, or nil.
func (r *Regex) FindStringIndex(s string, from int) []int {
	if from < 0 || from > len(s) {
		return nil
	}
	loc := r.re.FindStringIndex(s[from:])
	if loc == nil {
		return nil
	}
	return []int{loc[0] + from, loc[1] + from}
}

// FindAllStringIndex returns all non-overlapping matches.
func (r *Regex) FindAllStringIndex(s string, n int) [][]int {
	return r.re.FindAllStringIndex(s, n)
}

// ReplaceAllString replaces all matches with repl.
func (r *Regex) ReplaceAllString(s, repl string) string {
	return r.re.ReplaceAllString(s, repl)
}

// Split slices s into substrings separated by matches.
func (r *Regex) Split(s string, n int) []string {
	return r.re.Split(s, n)
}

// RegexCache shares compiled literals between closures. Literals with the
// same source and flags compile once; every materialization still gets
// its own RegExp object.
type RegexCache struct {
	cache   sync.Map   // map[string]*Regex
	orderMu sync.Mutex // Protects order for eviction
	order   []string
	maxSize int
	config  RegexConfig
}

// NewRegexCache creates a cache holding at most maxSize entries.
func NewRegexCache(maxSize int, config RegexConfig) *RegexCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &RegexCache{
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		config:  config,
	}
}

// Get returns a compiled regex, compiling and caching it if needed.
func (c *RegexCache) Get(source, flags string) (*Regex, error) {
	key := "/" + source + "/" + flags
	if re, ok := c.cache.Load(key); ok {
		return re.(*Regex), nil
	}

	re, err := CompileWithConfig(source, flags, c.config)
	if err != nil {
		return nil, err
	}
	if existing, loaded := c.cache.LoadOrStore(key, re); loaded {
		return existing.(*Regex), nil
	}

	c.orderMu.Lock()
	c.order = append(c.order, key)
	for len(c.order) > c.maxSize {
		c.cache.Delete(c.order[0])
		c.order = c.order[1:]
	}
	c.orderMu.Unlock()
	return re, nil
}

// Len returns the number of cached regexes.
func (c *RegexCache) Len() int {
	c.orderMu.Lock()
	defer c.orderMu.Unlock()
	return len(c.order)
}

// Config returns the cache's regex configuration.
func (c *RegexCache) Config() RegexConfig {
	return c.config
}
