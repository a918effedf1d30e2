package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func buildTree(t *testing.T, paths ...string) *Node {
	t.Helper()
	root := NewRoot("")
	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, Entry{Path: p, Locator: "url:" + p})
	}
	require.NoError(t, NewBuilder(root, nil).Build(entries))
	return root
}

func paths(root *Node) []string {
	var out []string
	for _, d := range root.Descendants() {
		out = append(out, d.Path())
	}
	return out
}

func TestFilter_IncludeExcludePrecedence(t *testing.T) {
	root := buildTree(t,
		"teamA/internal/toolX",
		"teamA/public/toolY",
	)

	stats := NewFilter(NewPolicy([]string{"teamA/**"}, []string{"teamA/internal"}), nil).Apply(root)

	assert.Equal(t, []string{"teamA", "teamA/public", "teamA/public/toolY"}, paths(root))
	assert.Equal(t, 1, stats.Removed)
	assert.Equal(t, 5, stats.Evaluated)
}

func TestFilter_ExcludeOnlyDefaultsToInclusion(t *testing.T) {
	root := buildTree(t,
		"teamA/svc1",
		"teamA/sub/svc2",
		"teamB/svc3",
		"teamC/svc4",
	)

	NewFilter(NewPolicy(nil, []string{"teamB/*"}), nil).Apply(root)

	assert.Equal(t, []string{
		"teamA", "teamA/svc1", "teamA/sub", "teamA/sub/svc2",
		"teamB",
		"teamC", "teamC/svc4",
	}, paths(root))
}

func TestFilter_Scenario(t *testing.T) {
	root := NewRoot("https://gitlab.example.com")
	require.NoError(t, NewBuilder(root, nil).Build([]Entry{
		{Path: "org/teamA/svc1", Locator: "L1"},
		{Path: "org/teamA/svc2", Locator: "L2"},
		{Path: "org/teamB/svc3", Locator: "L3"},
	}))

	NewFilter(NewPolicy([]string{"org/teamA/**"}, []string{}), nil).Apply(root)

	assert.Equal(t, "(https://gitlab.example.com)[org()[teamA()[svc1(L1)[]svc2(L2)[]]]]", shape(root))
	assert.Nil(t, root.FindChild("org").FindChild("teamB"))
}

func TestFilter_NoPatternsKeepsEverything(t *testing.T) {
	root := buildTree(t, "a/b", "c")
	before := shape(root)

	stats := NewFilter(Policy{}, nil).Apply(root)

	assert.Equal(t, before, shape(root))
	assert.Zero(t, stats.Removed)
}

func TestFilter_EvaluatesEachNodeOnItsOwnPath(t *testing.T) {
	root := buildTree(t, "g/sub/leaf", "g/other")

	// g/sub matches on its own; g/sub/leaf does not match a single-level
	// star and is removed even though its parent was kept.
	NewFilter(NewPolicy([]string{"g/*"}, nil), nil).Apply(root)

	assert.Equal(t, []string{"g", "g/sub", "g/other"}, paths(root))
}

func TestFilter_DescendantExcludedUnderRetainedGroup(t *testing.T) {
	root := buildTree(t, "org/team/keep", "org/team/drop")

	NewFilter(NewPolicy(nil, []string{"**/drop"}), nil).Apply(root)

	assert.Equal(t, []string{"org", "org/team", "org/team/keep"}, paths(root))
}

func TestFilter_ExcludedAncestorRemovesSubtree(t *testing.T) {
	root := buildTree(t, "org/secret/a", "org/secret/b", "org/open/c")

	NewFilter(NewPolicy([]string{"org/**"}, []string{"org/secret"}), nil).Apply(root)

	assert.Equal(t, []string{"org", "org/open", "org/open/c"}, paths(root))
}

func TestFilter_IncludeMatchingNothingEmptiesTree(t *testing.T) {
	root := buildTree(t, "a/b", "c/d")

	NewFilter(NewPolicy([]string{"zzz/**"}, nil), nil).Apply(root)

	assert.True(t, root.IsLeaf())
	assert.Equal(t, 0, root.Height())
}

func TestFilter_MalformedPatternIsNonMatch(t *testing.T) {
	root := buildTree(t, "a/b", "c/d")

	NewFilter(NewPolicy(nil, []string{"[bad"}), nil).Apply(root)
	assert.Equal(t, []string{"a", "a/b", "c", "c/d"}, paths(root))

	NewFilter(NewPolicy([]string{"[bad", "c/*"}, nil), nil).Apply(root)
	assert.Equal(t, []string{"c", "c/d"}, paths(root))
}

func TestFilter_WarnsAboutMalformedPatterns(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)

	NewFilter(NewPolicy([]string{"[bad", "ok/*"}, []string{"[z"}), zap.New(core))

	warnings := observed.FilterMessage("ignoring malformed pattern").All()
	require.Len(t, warnings, 2)
	assert.Equal(t, "include", warnings[0].ContextMap()["kind"])
	assert.Equal(t, "[bad", warnings[0].ContextMap()["pattern"])
	assert.Equal(t, "exclude", warnings[1].ContextMap()["kind"])
}

func TestFilter_LogsMatches(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	root := buildTree(t, "a/b", "c/d")

	NewFilter(NewPolicy([]string{"a/**", "c/**"}, []string{"c"}), zap.New(core)).Apply(root)

	assert.NotZero(t, observed.FilterMessage("matched include pattern").Len())
	assert.Equal(t, 1, observed.FilterMessage("matched exclude pattern").Len())
	assert.Equal(t, 1, observed.FilterMessage("removed node").Len())
	assert.Equal(t, 1, observed.FilterMessage("tree filtered").Len())
}
