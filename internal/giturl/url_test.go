package giturl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantScheme string
		wantHost   string
		wantPath   string
		wantErr    bool
	}{
		{
			name:       "https github",
			input:      "https://github.com/acme/widget.git",
			wantScheme: "https",
			wantHost:   "github.com",
			wantPath:   "/acme/widget.git",
		},
		{
			name:       "scp-like ssh",
			input:      "git@github.com:acme/widget.git",
			wantScheme: "ssh",
			wantHost:   "github.com",
			wantPath:   "/acme/widget.git",
		},
		{
			name:       "explicit ssh",
			input:      "ssh://git@gitlab.com/acme/widget.git",
			wantScheme: "ssh",
			wantHost:   "gitlab.com",
			wantPath:   "/acme/widget.git",
		},
		{
			name:       "git+https normalized",
			input:      "git+https://github.com/acme/widget",
			wantScheme: "https",
			wantHost:   "github.com",
			wantPath:   "/acme/widget",
		},
		{
			name:       "git+ssh normalized",
			input:      "git+ssh://git@github.com/acme/widget",
			wantScheme: "ssh",
			wantHost:   "github.com",
			wantPath:   "/acme/widget",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.wantScheme, u.Scheme)
			require.Equal(t, tt.wantHost, u.Host)
			require.Equal(t, tt.wantPath, u.Path)
		})
	}
}

func TestExtractOwnerRepo(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{
			name:      "https with .git",
			input:     "https://github.com/acme/widget.git",
			wantOwner: "acme",
			wantRepo:  "widget",
		},
		{
			name:      "scp-like",
			input:     "git@github.com:acme/widget.git",
			wantOwner: "acme",
			wantRepo:  "widget",
		},
		{
			name:      "nested group path keeps first segment",
			input:     "https://gitlab.com/group/subgroup/project",
			wantOwner: "group",
			wantRepo:  "subgroup",
		},
		{
			name:    "no owner segment",
			input:   "https://example.com/just-a-repo",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Parse(tt.input)
			require.NoError(t, err)

			owner, repo, err := ExtractOwnerRepo(u)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.wantOwner, owner)
			require.Equal(t, tt.wantRepo, repo)
		})
	}
}

func TestOwner(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "https", input: "https://github.com/acme/widget.git", want: "acme"},
		{name: "scp-like", input: "git@github.com:acme/widget.git", want: "acme"},
		{name: "trailing whitespace", input: " https://github.com/acme/widget \n", want: "acme"},
		{name: "empty", input: "", want: ""},
		{name: "ownerless", input: "https://example.com/repo", want: ""},
		{name: "garbage", input: "://///", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Owner(tt.input))
		})
	}
}
