package tree

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree(t *testing.T) *Node {
	t.Helper()
	root := NewRoot("https://gitlab.example.com")
	require.NoError(t, NewBuilder(root, nil).Build([]Entry{
		{Path: "org/teamA/svc1", Locator: "L1"},
		{Path: "org/teamA/svc2", Locator: "L2"},
		{Path: "org/teamB/svc3", Locator: "L3"},
		{Path: "solo", Locator: "L4"},
	}))
	return root
}

func assertSameTree(t *testing.T, want, got *Node) {
	t.Helper()
	assert.Equal(t, shape(want), shape(got))

	wantNodes := append([]*Node{want}, want.Descendants()...)
	gotNodes := append([]*Node{got}, got.Descendants()...)
	require.Len(t, gotNodes, len(wantNodes))
	for i := range wantNodes {
		assert.Equal(t, wantNodes[i].Path(), gotNodes[i].Path())
		assert.NotSame(t, wantNodes[i], gotNodes[i])
	}
}

func TestExport(t *testing.T) {
	doc := Export(sampleTree(t))

	assert.Equal(t, "", doc.Name)
	assert.Equal(t, "https://gitlab.example.com", doc.URL)
	require.Len(t, doc.Children, 2)

	org := doc.Children[0]
	assert.Equal(t, "org", org.Name)
	assert.Equal(t, "org", org.RootPath)
	assert.Equal(t, "", org.URL)

	svc1 := org.Children[0].Children[0]
	assert.Equal(t, "svc1", svc1.Name)
	assert.Equal(t, "org/teamA/svc1", svc1.RootPath)
	assert.Equal(t, "L1", svc1.URL)
	assert.Empty(t, svc1.Children)
}

func TestRoundTrip(t *testing.T) {
	encoders := map[string]func(*bytes.Buffer, *Node) error{
		"yaml": func(b *bytes.Buffer, n *Node) error { return EncodeYAML(b, n) },
		"json": func(b *bytes.Buffer, n *Node) error { return EncodeJSON(b, n) },
	}

	for name, encode := range encoders {
		t.Run(name, func(t *testing.T) {
			original := sampleTree(t)
			NewFilter(NewPolicy(nil, []string{"org/teamB"}), nil).Apply(original)

			var buf bytes.Buffer
			require.NoError(t, encode(&buf, original))

			imported, err := Decode(&buf)
			require.NoError(t, err)
			assertSameTree(t, original, imported)
		})
	}
}

func TestEncodeJSON_SortedKeysAndIndent(t *testing.T) {
	root := NewRoot("https://gitlab.example.com")
	require.NoError(t, NewBuilder(root, nil).Add(Entry{Path: "g/p", Locator: "L"}))

	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, root))

	want := `{
  "children": [
    {
      "children": [
        {
          "name": "p",
          "root_path": "g/p",
          "url": "L"
        }
      ],
      "name": "g",
      "root_path": "g"
    }
  ],
  "name": "",
  "url": "https://gitlab.example.com"
}
`
	assert.Equal(t, want, buf.String())
}

func TestEncodeYAML(t *testing.T) {
	root := NewRoot("https://gitlab.example.com")
	require.NoError(t, NewBuilder(root, nil).Add(Entry{Path: "g/p", Locator: "L"}))

	var buf bytes.Buffer
	require.NoError(t, EncodeYAML(&buf, root))

	out := buf.String()
	assert.Contains(t, out, "name: g\n")
	assert.Contains(t, out, "root_path: g/p\n")
	assert.Contains(t, out, "url: L\n")
	assert.Less(t, strings.Index(out, "children:"), strings.Index(out, "url: https"))
}

func TestDecode_IgnoresStoredPaths(t *testing.T) {
	input := `
name: ""
url: https://gitlab.example.com
children:
  - name: org
    root_path: somewhere/else
    children:
      - name: svc
        root_path: wrong
        url: L1
`
	root, err := Decode(strings.NewReader(input))
	require.NoError(t, err)

	svc := root.FindChild("org").FindChild("svc")
	require.NotNil(t, svc)
	assert.Equal(t, "org/svc", svc.Path())
	assert.Equal(t, "L1", svc.Locator)
	assert.Equal(t, "https://gitlab.example.com", root.Locator)
}

func TestDecode_AcceptsJSON(t *testing.T) {
	input := `{"name": "", "children": [{"name": "a", "children": [{"name": "b", "url": "L"}]}]}`

	root, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "a/b", root.FindChild("a").FindChild("b").Path())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty input", "", ErrMalformedDocument},
		{"not yaml", "name: [unterminated", ErrMalformedDocument},
		{"wrong shape", "- a\n- b\n", ErrMalformedDocument},
		{"named root", "name: top\n", ErrInvalidDocument},
		{"child without name", "name: ''\nchildren:\n  - url: L\n", ErrInvalidDocument},
		{"null child", "name: ''\nchildren:\n  - null\n", ErrInvalidDocument},
		{"separator in name", "name: ''\nchildren:\n  - name: a/b\n", ErrInvalidDocument},
		{"backslash in name", "name: ''\nchildren:\n  - name: 'a\\b'\n", ErrInvalidDocument},
		{"parent name", "name: ''\nchildren:\n  - name: '..'\n    children:\n      - name: evil\n        url: L\n", ErrInvalidDocument},
		{"dot name", "name: ''\nchildren:\n  - name: '.'\n", ErrInvalidDocument},
		{"nested parent name", "name: ''\nchildren:\n  - name: a\n    children:\n      - name: '..'\n", ErrInvalidDocument},
		{"duplicate siblings", "name: ''\nchildren:\n  - name: a\n  - name: a\n", ErrInvalidDocument},
		{"deep missing name", "name: ''\nchildren:\n  - name: a\n    children:\n      - url: L\n", ErrInvalidDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Nil(t, root)
		})
	}
}

func TestImport_Nil(t *testing.T) {
	_, err := Import(nil)
	assert.True(t, errors.Is(err, ErrInvalidDocument))
}
