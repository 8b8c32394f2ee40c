// Package rules maps resource paths to the loader chain of the first
// configured rule that matches them.
package rules

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/specialistvlad/packgrid/internal/config"
	"github.com/specialistvlad/packgrid/internal/failure"
)

// Rule is a compiled configuration rule.
type Rule struct {
	Index   int
	test    *regexp.Regexp
	include string
	exclude *regexp.Regexp
	Use     []*config.LoaderRef
}

// Matches reports whether the rule applies to path. Test and Include must
// both match when both are set; Exclude vetoes the match.
func (r *Rule) Matches(path string) bool {
	if r.test != nil && !r.test.MatchString(path) {
		return false
	}
	if r.include != "" {
		ok, err := filepath.Match(r.include, filepath.Base(path))
		if err != nil || !ok {
			return false
		}
	}
	if r.exclude != nil && r.exclude.MatchString(path) {
		return false
	}
	return true
}

// Resolver selects rules by first-match-wins over their configured order.
// It is immutable and safe for concurrent use.
type Resolver struct {
	rules []*Rule
}

// New compiles the configured rules.
func New(cfg []*config.Rule) (*Resolver, error) {
	res := &Resolver{rules: make([]*Rule, 0, len(cfg))}
	for i, c := range cfg {
		r := &Rule{Index: i, include: c.Include, Use: c.Use}
		if c.Test != "" {
			re, err := regexp.Compile(c.Test)
			if err != nil {
				return nil, fmt.Errorf("rule #%d: invalid test pattern %q: %w", i, c.Test, err)
			}
			r.test = re
		}
		if c.Include != "" {
			if _, err := filepath.Match(c.Include, ""); err != nil {
				return nil, fmt.Errorf("rule #%d: invalid include pattern %q: %w", i, c.Include, err)
			}
		}
		if c.Exclude != "" {
			re, err := regexp.Compile(c.Exclude)
			if err != nil {
				return nil, fmt.Errorf("rule #%d: invalid exclude pattern %q: %w", i, c.Exclude, err)
			}
			r.exclude = re
		}
		res.rules = append(res.rules, r)
	}
	return res, nil
}

// Len returns the number of rules.
func (r *Resolver) Len() int { return len(r.rules) }

// Resolve returns the first rule that matches path, or a NoMatchingRule
// failure.
func (r *Resolver) Resolve(path string) (*Rule, error) {
	for _, rule := range r.rules {
		if rule.Matches(path) {
			return rule, nil
		}
	}
	return nil, failure.Errorf(failure.NoMatchingRule, path, "none of %d rules match", len(r.rules))
}
