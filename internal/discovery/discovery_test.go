package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CommissaiR/gitlabber/internal/config"
	"github.com/CommissaiR/gitlabber/internal/tree"
)

var sample = []Project{
	{PathWithNamespace: "org/teamA/svc1", HTTPURL: "https://git.example.com/org/teamA/svc1.git", SSHURL: "git@git.example.com:org/teamA/svc1.git"},
	{PathWithNamespace: "org/teamB/svc2", HTTPURL: "https://git.example.com/org/teamB/svc2.git", SSHURL: "git@git.example.com:org/teamB/svc2.git"},
	{PathWithNamespace: "other/lib", HTTPURL: "https://git.example.com/other/lib.git", SSHURL: "git@git.example.com:other/lib.git"},
	{PathWithNamespace: "organisation/x", HTTPURL: "https://git.example.com/organisation/x.git", SSHURL: "git@git.example.com:organisation/x.git"},
}

func TestFilterNamespace(t *testing.T) {
	tests := []struct {
		name string
		ns   string
		want []string
	}{
		{"empty keeps all", "", []string{"org/teamA/svc1", "org/teamB/svc2", "other/lib", "organisation/x"}},
		{"exact first segment", "org", []string{"org/teamA/svc1", "org/teamB/svc2"}},
		{"no prefix matching", "orga", nil},
		{"single match", "other", []string{"other/lib"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, p := range FilterNamespace(sample, tt.ns) {
				got = append(got, p.PathWithNamespace)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntries(t *testing.T) {
	ssh := Entries(sample[:1], config.MethodSSH)
	assert.Equal(t, []tree.Entry{{Path: "org/teamA/svc1", Locator: "git@git.example.com:org/teamA/svc1.git"}}, ssh)

	httpEntries := Entries(sample[:1], config.MethodHTTP)
	assert.Equal(t, []tree.Entry{{Path: "org/teamA/svc1", Locator: "https://git.example.com/org/teamA/svc1.git"}}, httpEntries)

	assert.Empty(t, Entries(nil, config.MethodSSH))
}

func TestEntries_BuildTree(t *testing.T) {
	root := tree.NewRoot("https://git.example.com")
	require.NoError(t, tree.NewBuilder(root, nil).Build(Entries(FilterNamespace(sample, "org"), config.MethodHTTP)))

	groups, projects := root.Counts()
	assert.Equal(t, 3, groups)
	assert.Equal(t, 2, projects)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	src, err := New(ctx, config.ProviderGitLab, Options{URL: "https://gitlab.example.com", Token: "t"})
	require.NoError(t, err)
	assert.IsType(t, &GitLab{}, src)

	src, err = New(ctx, config.ProviderGitHub, Options{Token: "t"})
	require.NoError(t, err)
	assert.IsType(t, &GitHub{}, src)

	_, err = New(ctx, "bitbucket", Options{})
	assert.Error(t, err)
}

func TestNewGitLab_NoURL(t *testing.T) {
	_, err := NewGitLab(Options{})
	assert.Error(t, err)
}

func TestNewGitHub_NoTokenNoOrg(t *testing.T) {
	_, err := NewGitHub(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrNoToken)
}
