package classifier

import (
	"strings"

	"github.com/teemow/inboxalert/internal/inbox"
)

// BodyExcerptLen is the number of body runes considered when body matching
// is enabled.
const BodyExcerptLen = 500

// Classifier assigns exactly one category label per email.
type Classifier struct {
	rules        []Rule
	defaultLabel string
	matchBody    bool
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithBody enables matching the body excerpt when the subject matches no rule.
func WithBody(enabled bool) Option {
	return func(c *Classifier) {
		c.matchBody = enabled
	}
}

// WithDefault overrides the label returned when no rule matches.
// An empty label keeps LabelDefault.
func WithDefault(label string) Option {
	return func(c *Classifier) {
		if label != "" {
			c.defaultLabel = label
		}
	}
}

// New creates a Classifier over the given ordered rules.
// Keywords are lower-cased once here so matching stays case-insensitive.
func New(rules []Rule, opts ...Option) *Classifier {
	normalized := make([]Rule, 0, len(rules))
	for _, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kws = append(kws, strings.ToLower(kw))
		}
		normalized = append(normalized, Rule{Label: r.Label, Keywords: kws})
	}

	c := &Classifier{
		rules:        normalized,
		defaultLabel: LabelDefault,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the label of the first rule matching the subject.
func (c *Classifier) Classify(subject string) string {
	if label, ok := c.match(subject); ok {
		return label
	}
	return c.defaultLabel
}

// ClassifyEmail classifies by subject first and, if body matching is
// enabled and the subject matched nothing, by the body excerpt.
func (c *Classifier) ClassifyEmail(e inbox.Email) string {
	if label, ok := c.match(e.Subject); ok {
		return label
	}
	if c.matchBody && e.Body != "" {
		if label, ok := c.match(excerpt(e.Body, BodyExcerptLen)); ok {
			return label
		}
	}
	return c.defaultLabel
}

// Rules returns a copy of the normalized rules in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// DefaultLabel returns the fallback label.
func (c *Classifier) DefaultLabel() string {
	return c.defaultLabel
}

func (c *Classifier) match(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, r := range c.rules {
		if r.matches(lower) {
			return r.Label, true
		}
	}
	return "", false
}

func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
