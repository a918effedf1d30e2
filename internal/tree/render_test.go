package tree

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	root := sampleTree(t)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, root))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "root [https://gitlab.example.com]", lines[0])

	for i, want := range []string{
		"org [org]",
		"teamA [org/teamA]",
		"svc1 [org/teamA/svc1]",
		"svc2 [org/teamA/svc2]",
		"teamB [org/teamB]",
		"svc3 [org/teamB/svc3]",
		"solo [solo]",
	} {
		assert.True(t, strings.HasSuffix(lines[i+1], want), "line %d: %q", i+1, lines[i+1])
	}

	// deeper nodes are indented further
	assert.Greater(t, strings.Index(lines[3], "svc1"), strings.Index(lines[2], "teamA"))
	assert.Greater(t, strings.Index(lines[2], "teamA"), strings.Index(lines[1], "org"))
}

func TestRender_EmptyTree(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, NewRoot("https://gitlab.example.com")))
	assert.Equal(t, "root [https://gitlab.example.com]", strings.TrimSpace(buf.String()))
}
