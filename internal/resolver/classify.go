package resolver

import (
	"fmt"
	"regexp"
	"strings"
)

// Class is the resolution path chosen for a source reference.
type Class string

const (
	ClassDirect        Class = "direct"
	ClassStreamingSite Class = "streaming_site"
)

// DefaultSitePatterns match the watch, short-link, embed, shorts and live
// forms of the supported video platform.
var DefaultSitePatterns = []string{
	`^https?://(www\.|m\.|music\.)?youtube\.com/watch\?(.*&)?v=[0-9A-Za-z_-]{11}`,
	`^https?://(www\.|m\.)?youtube\.com/(embed|shorts|live|v)/[0-9A-Za-z_-]{11}`,
	`^https?://(www\.)?youtube-nocookie\.com/embed/[0-9A-Za-z_-]{11}`,
	`^https?://youtu\.be/[0-9A-Za-z_-]{11}`,
}

// Classifier decides whether a reference needs extraction.
type Classifier struct {
	patterns []*regexp.Regexp
}

// NewClassifier compiles patterns. Matching is case-insensitive.
// An empty set classifies everything as direct.
func NewClassifier(patterns []string) (*Classifier, error) {
	c := &Classifier{}
	var bad []string
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			bad = append(bad, fmt.Sprintf("%q: %v", p, err))
			continue
		}
		c.patterns = append(c.patterns, re)
	}
	if len(bad) > 0 {
		return nil, fmt.Errorf("invalid site patterns: %s", strings.Join(bad, "; "))
	}
	return c, nil
}

// DefaultClassifier returns a classifier over DefaultSitePatterns.
func DefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultSitePatterns)
	if err != nil {
		panic(err)
	}
	return c
}

// Classify returns ClassStreamingSite when ref matches a site pattern.
// Anything else, including well-formed URLs on unknown hosts and opaque
// locators, is ClassDirect.
func (c *Classifier) Classify(ref string) Class {
	ref = strings.TrimSpace(ref)
	for _, re := range c.patterns {
		if re.MatchString(ref) {
			return ClassStreamingSite
		}
	}
	return ClassDirect
}
