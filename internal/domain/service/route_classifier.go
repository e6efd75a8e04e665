package service

import (
	"strings"

	"github.com/turtacn/kpidash/pkg/constants"
)

// MatchKind selects how a RouteRule compares a path.
type MatchKind int

const (
	MatchExact MatchKind = iota
	MatchPrefix
)

// RouteRule maps a path pattern to a tier.
type RouteRule struct {
	Kind    MatchKind
	Pattern string
	Tier    constants.RouteTier
}

// Matches reports whether path satisfies the rule.
func (r RouteRule) Matches(path string) bool {
	switch r.Kind {
	case MatchExact:
		return path == r.Pattern
	case MatchPrefix:
		return strings.HasPrefix(path, r.Pattern)
	}
	return false
}

// DefaultRouteRules is the ordered classification table. Auth rules precede the
// generic API rule so that /api/auth/* is throttled only by the auth tier.
var DefaultRouteRules = []RouteRule{
	{Kind: MatchExact, Pattern: "/login", Tier: constants.RouteTierAuth},
	{Kind: MatchExact, Pattern: "/signup", Tier: constants.RouteTierAuth},
	{Kind: MatchPrefix, Pattern: "/auth/", Tier: constants.RouteTierAuth},
	{Kind: MatchPrefix, Pattern: "/api/auth/", Tier: constants.RouteTierAuth},
	{Kind: MatchPrefix, Pattern: "/api/", Tier: constants.RouteTierAPI},
}

// RouteClassifier assigns a tier to a request path using the first matching rule.
type RouteClassifier struct {
	rules []RouteRule
}

// NewRouteClassifier creates a classifier over rules, or DefaultRouteRules when empty.
func NewRouteClassifier(rules ...RouteRule) *RouteClassifier {
	if len(rules) == 0 {
		rules = DefaultRouteRules
	}
	cp := make([]RouteRule, len(rules))
	copy(cp, rules)
	return &RouteClassifier{rules: cp}
}

// Classify returns the tier of the first rule matching path, or RouteTierNone.
func (c *RouteClassifier) Classify(path string) constants.RouteTier {
	for _, rule := range c.rules {
		if rule.Matches(path) {
			return rule.Tier
		}
	}
	return constants.RouteTierNone
}
