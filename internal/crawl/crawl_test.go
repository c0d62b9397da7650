package crawl

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chartscout/chartscout/internal/types"
)

type fakeRepos struct {
	pages   map[int][]types.Repository
	failAt  int
	calls   []int
	perPage int
}

func (f *fakeRepos) ListOrgRepos(_ context.Context, _ string, page, perPage int) ([]types.Repository, error) {
	f.calls = append(f.calls, page)
	f.perPage = perPage
	if page == f.failAt {
		return nil, errors.New("502 bad gateway")
	}
	return f.pages[page], nil
}

type fakeTree struct {
	entries   []types.FileDescriptor
	truncated bool
	err       error
	gotRef    string
}

func (f *fakeTree) Tree(_ context.Context, _, _, ref string) ([]types.FileDescriptor, bool, error) {
	f.gotRef = ref
	return f.entries, f.truncated, f.err
}

type fakeContents map[string][2]string

func (f fakeContents) Contents(_ context.Context, _, _, p string) (string, string, error) {
	v, ok := f[p]
	if !ok {
		return "", "", errors.New("404 not found")
	}
	return v[0], v[1], nil
}

func TestEnumerator_PagesUntilEmpty(t *testing.T) {
	api := &fakeRepos{pages: map[int][]types.Repository{
		1: {{Name: "a"}, {Name: "b"}},
		2: {{Name: "c"}},
	}}
	repos, err := NewEnumerator(api, "acme", 0, nil).ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.Repository{{Name: "a"}, {Name: "b"}, {Name: "c"}}, repos)
	assert.Equal(t, []int{1, 2, 3}, api.calls)
	assert.Equal(t, DefaultPerPage, api.perPage)
}

func TestEnumerator_EmptyOrganization(t *testing.T) {
	api := &fakeRepos{}
	repos, err := NewEnumerator(api, "acme", 100, nil).ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, repos)
	assert.Equal(t, []int{1}, api.calls)
}

func TestEnumerator_PageFailureIsFatal(t *testing.T) {
	api := &fakeRepos{
		pages:  map[int][]types.Repository{1: {{Name: "a"}}},
		failAt: 2,
	}
	repos, err := NewEnumerator(api, "acme", 100, nil).ListAll(context.Background())
	require.Error(t, err)
	assert.Nil(t, repos)
	assert.True(t, errors.Is(err, ErrEnumeration))
	assert.Contains(t, err.Error(), "page 2")
}

func TestEnumerator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEnumerator(&fakeRepos{}, "acme", 100, nil).ListAll(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEnumeration))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLister_KeepsRecognizedBlobs(t *testing.T) {
	api := &fakeTree{entries: []types.FileDescriptor{
		{Path: "charts", Kind: types.KindTree},
		{Path: "charts/values.yaml", Kind: types.KindBlob, Size: 10},
		{Path: "README.md", Kind: types.KindBlob, Size: 10},
		{Path: "deploy/APP.YML", Kind: types.KindBlob, Size: 10},
		{Path: "weird.yaml", Kind: types.KindTree},
		{Path: "noext", Kind: types.KindBlob},
	}}
	files := NewLister(api, "acme", ListerOptions{}, nil).List(context.Background(), "api")
	assert.Equal(t, "HEAD", api.gotRef)
	require.Len(t, files, 2)
	assert.Equal(t, "charts/values.yaml", files[0].Path)
	assert.Equal(t, "deploy/APP.YML", files[1].Path)
}

func TestLister_CustomExtensionsAndFilters(t *testing.T) {
	api := &fakeTree{entries: []types.FileDescriptor{
		{Path: "a.yaml", Kind: types.KindBlob, Size: 10},
		{Path: "b.tpl", Kind: types.KindBlob, Size: 10},
		{Path: "big.tpl", Kind: types.KindBlob, Size: 5000},
		{Path: "skip/c.tpl", Kind: types.KindBlob, Size: 10},
	}}
	l := NewLister(api, "acme", ListerOptions{
		Ref:        "main",
		Extensions: []string{"tpl"},
		Allow:      func(p string) bool { return p != "skip/c.tpl" },
		MaxBytes:   1024,
	}, nil)
	files := l.List(context.Background(), "api")
	assert.Equal(t, "main", api.gotRef)
	require.Len(t, files, 1)
	assert.Equal(t, "b.tpl", files[0].Path)
}

func TestLister_FailureYieldsEmpty(t *testing.T) {
	api := &fakeTree{err: errors.New("409 git repository is empty")}
	files := NewLister(api, "acme", ListerOptions{}, nil).List(context.Background(), "empty")
	assert.Empty(t, files)
}

func TestLister_TruncatedTreeStillReturnsEntries(t *testing.T) {
	api := &fakeTree{truncated: true, entries: []types.FileDescriptor{
		{Path: "a.yml", Kind: types.KindBlob},
	}}
	files := NewLister(api, "acme", ListerOptions{}, nil).List(context.Background(), "huge")
	assert.Len(t, files, 1)
}

func TestDecode(t *testing.T) {
	enc := base64.StdEncoding.EncodeToString([]byte("image: bitnami/redis:7\n"))
	wrapped := enc[:10] + "\n" + enc[10:20] + "\r\n" + enc[20:] + "\n"

	tests := []struct {
		name     string
		raw      string
		encoding string
		want     string
		wantErr  bool
	}{
		{name: "plain", raw: enc, encoding: "base64", want: "image: bitnami/redis:7\n"},
		{name: "line wrapped", raw: wrapped, encoding: "base64", want: "image: bitnami/redis:7\n"},
		{name: "empty", raw: "", encoding: "base64", want: ""},
		{name: "invalid utf8 dropped", raw: base64.StdEncoding.EncodeToString([]byte("a\xffb\xfe")), encoding: "base64", want: "ab"},
		{name: "bad base64", raw: "!!!not-base64", encoding: "base64", wantErr: true},
		{name: "too large for contents api", raw: "", encoding: "none", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.raw, tt.encoding)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetcher_Fetch(t *testing.T) {
	api := fakeContents{
		"ok.yaml":  {base64.StdEncoding.EncodeToString([]byte("repo: https://charts.bitnami.com/bitnami")), "base64"},
		"bad.yaml": {"%%%", "base64"},
	}
	f := NewFetcher(api, "acme", nil)

	text, ok := f.Fetch(context.Background(), "api", "ok.yaml")
	assert.True(t, ok)
	assert.Equal(t, "repo: https://charts.bitnami.com/bitnami", text)

	text, ok = f.Fetch(context.Background(), "api", "bad.yaml")
	assert.False(t, ok)
	assert.Empty(t, text)

	_, ok = f.Fetch(context.Background(), "api", "missing.yaml")
	assert.False(t, ok)
}

func TestGlobFilter(t *testing.T) {
	f, err := NewGlobFilter([]string{"charts/**,*.yml"}, []string{"**/test/**"})
	require.NoError(t, err)

	assert.True(t, f.Allow("charts/redis/values.yaml"))
	assert.True(t, f.Allow("deploy/app.yml"))
	assert.False(t, f.Allow("deploy/app.yaml"))
	assert.False(t, f.Allow("charts/test/values.yaml"))

	var nilFilter *GlobFilter
	assert.True(t, nilFilter.Allow("anything"))
}

func TestGlobFilter_Invalid(t *testing.T) {
	_, err := NewGlobFilter(nil, []string{"[unclosed"})
	require.Error(t, err)
	var ge *InvalidGlobError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "[unclosed", ge.Glob)
}

func TestPathFilter_DefaultExcludes(t *testing.T) {
	allow := PathFilter(nil, true)
	assert.False(t, allow("web/node_modules/pkg/config.yaml"))
	assert.False(t, allow("pnpm-lock.yaml"))
	assert.False(t, allow("charts/redis/Chart.lock"))
	assert.False(t, allow("api/openapi.gen.yaml"))
	assert.True(t, allow("charts/redis/values.yaml"))

	assert.True(t, PathFilter(nil, false)("pnpm-lock.yaml"))
}

func TestLister_VendoredChartsListedWithoutDefaultExcludes(t *testing.T) {
	api := &fakeTree{entries: []types.FileDescriptor{
		{Path: "third_party/charts/redis/values.yaml", Kind: types.KindBlob},
		{Path: "deploy/build/values.yaml", Kind: types.KindBlob},
		{Path: "dist/helm/values.yml", Kind: types.KindBlob},
		{Path: "k8s/app.gen.yaml", Kind: types.KindBlob},
		{Path: "values.yaml", Kind: types.KindBlob},
	}}
	files := NewLister(api, "acme", ListerOptions{Allow: PathFilter(nil, false)}, nil).List(context.Background(), "api")
	assert.Len(t, files, 5)

	files = NewLister(api, "acme", ListerOptions{Allow: PathFilter(nil, true)}, nil).List(context.Background(), "api")
	require.Len(t, files, 1)
	assert.Equal(t, "values.yaml", files[0].Path)
}
