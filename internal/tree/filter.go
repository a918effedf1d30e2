package tree

import (
	"go.uber.org/zap"

	"github.com/CommissaiR/gitlabber/internal/pathmatch"
)

// Policy holds the include and exclude patterns applied by a Filter.
//
// An empty Include list means every node passes inclusion. Exclusion always
// wins over inclusion.
type Policy struct {
	Include []pathmatch.Matcher
	Exclude []pathmatch.Matcher
}

// NewPolicy compiles include and exclude patterns leniently: a malformed
// pattern matches nothing.
func NewPolicy(include, exclude []string) Policy {
	return Policy{
		Include: pathmatch.LenientAll(include),
		Exclude: pathmatch.LenientAll(exclude),
	}
}

// Empty reports whether the policy has no patterns at all.
func (p Policy) Empty() bool {
	return len(p.Include) == 0 && len(p.Exclude) == 0
}

// FilterStats summarises one Apply pass.
type FilterStats struct {
	Evaluated int
	Removed   int
}

// Filter prunes a tree in place according to a Policy.
type Filter struct {
	policy Policy
	logger *zap.Logger
}

// NewFilter returns a Filter for policy. A nil logger disables logging.
// Malformed patterns are reported once as warnings and match nothing.
func NewFilter(policy Policy, logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	warnMalformed(logger, "include", policy.Include)
	warnMalformed(logger, "exclude", policy.Exclude)
	return &Filter{policy: policy, logger: logger}
}

func warnMalformed(logger *zap.Logger, kind string, matchers []pathmatch.Matcher) {
	for _, m := range matchers {
		if !pathmatch.Valid(m) {
			logger.Warn("ignoring malformed pattern",
				zap.String("kind", kind),
				zap.String("pattern", m.Pattern()))
		}
	}
}

// Apply filters the descendants of root; root itself is never removed.
//
// Each node is judged on its own canonical path. A node survives when it is
// not excluded and either matches an include pattern or keeps at least one
// surviving descendant, so groups leading to included projects stay in the
// tree. Removed nodes are detached once their level has been evaluated.
func (f *Filter) Apply(root *Node) FilterStats {
	var stats FilterStats
	if f.policy.Empty() {
		return stats
	}
	f.apply(root, &stats)
	f.logger.Debug("tree filtered",
		zap.Int("evaluated", stats.Evaluated),
		zap.Int("removed", stats.Removed))
	return stats
}

// apply filters the children of node and reports whether any of them
// survived.
func (f *Filter) apply(node *Node, stats *FilterStats) bool {
	children := node.Children()
	removed := make([]*Node, 0, len(children))
	kept := false

	for _, child := range children {
		stats.Evaluated++
		descendantKept := f.apply(child, stats)

		keep := f.included(child) || descendantKept
		if keep && f.excluded(child) {
			keep = false
		}
		if keep {
			kept = true
			continue
		}
		removed = append(removed, child)
	}

	for _, child := range removed {
		child.Detach()
		stats.Removed++
		f.logger.Debug("removed node", zap.String("path", child.Path()))
	}
	return kept
}

func (f *Filter) included(n *Node) bool {
	if len(f.policy.Include) == 0 {
		return true
	}
	for _, m := range f.policy.Include {
		if m.Match(n.Path()) {
			f.logger.Debug("matched include pattern",
				zap.String("pattern", m.Pattern()),
				zap.String("path", n.Path()))
			return true
		}
	}
	return false
}

func (f *Filter) excluded(n *Node) bool {
	for _, m := range f.policy.Exclude {
		if m.Match(n.Path()) {
			f.logger.Debug("matched exclude pattern",
				zap.String("pattern", m.Pattern()),
				zap.String("path", n.Path()))
			return true
		}
	}
	return false
}
