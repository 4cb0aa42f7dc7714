package resolver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gridlock/internal/adapters/digest"
	"go.trai.ch/gridlock/internal/adapters/nar"
	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/gridlock/internal/core/ports"
	"go.trai.ch/gridlock/internal/core/ports/mocks"
	"go.trai.ch/gridlock/internal/engine/resolver"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

const (
	branchCommit = "1111111111111111111111111111111111111111"
	tagCommit    = "2222222222222222222222222222222222222222"
	mainCommit   = "3333333333333333333333333333333333333333"
	cloneURL     = "https://github.com/acme/widgets.git"
)

var (
	remote   = domain.Remote{Host: "github.com", Owner: "acme", Repo: "widgets"}
	resolved = time.Date(2024, 5, 6, 7, 8, 9, 500, time.FixedZone("CEST", 2*60*60))
)

func advertised() domain.RemoteRefs {
	return domain.RemoteRefs{
		Head: "refs/heads/main",
		Refs: map[string]string{
			"HEAD":              mainCommit,
			"refs/heads/main":   mainCommit,
			"refs/heads/master": branchCommit,
			"refs/tags/master":  tagCommit,
			"refs/tags/v1.0":    tagCommit,
		},
	}
}

type fixture struct {
	git       *mocks.MockRemoteGit
	archiver  *mocks.MockArchiver
	digester  *mocks.MockDigester
	telemetry *mocks.MockTelemetry
	vertex    *mocks.MockVertex
	resolver  *resolver.Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		git:       mocks.NewMockRemoteGit(ctrl),
		archiver:  mocks.NewMockArchiver(ctrl),
		digester:  mocks.NewMockDigester(ctrl),
		telemetry: mocks.NewMockTelemetry(ctrl),
		vertex:    mocks.NewMockVertex(ctrl),
	}
	f.resolver = resolver.New(f.git, f.archiver, f.digester, f.telemetry, domain.DefaultURLTemplate).
		WithClock(func() time.Time { return resolved })
	return f
}

func (f *fixture) expectVertex() {
	f.telemetry.EXPECT().Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string) (context.Context, ports.Vertex) {
			return ctx, f.vertex
		})
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		ref        string
		wantRef    string
		wantCommit string
	}{
		{name: "branch wins over tag", ref: "master", wantRef: "master", wantCommit: branchCommit},
		{name: "tag", ref: "v1.0", wantRef: "v1.0", wantCommit: tagCommit},
		{name: "default branch", ref: "", wantRef: "main", wantCommit: mainCommit},
		{name: "full tag ref", ref: "refs/tags/master", wantRef: "master", wantCommit: tagCommit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.git.EXPECT().ListRefs(gomock.Any(), cloneURL).Return(advertised(), nil)

			info, err := f.resolver.Resolve(context.Background(), remote, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, domain.RevisionInfo{
				Remote:     remote,
				Ref:        tt.wantRef,
				Commit:     tt.wantCommit,
				ResolvedAt: time.Date(2024, 5, 6, 5, 8, 9, 0, time.UTC),
			}, info)
		})
	}
}

func TestResolve_UnknownRefNamesRemote(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.git.EXPECT().ListRefs(gomock.Any(), cloneURL).Return(advertised(), nil)

	_, err := f.resolver.Resolve(context.Background(), remote, "nope")
	require.ErrorIs(t, err, domain.ErrUnknownRef)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "nope", zErr.Metadata()["ref"])
	assert.Equal(t, "github.com/acme/widgets", zErr.Metadata()["remote"])
}

func TestResolve_RemoteUnavailable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.git.EXPECT().ListRefs(gomock.Any(), cloneURL).
		Return(domain.RemoteRefs{}, domain.Classify(domain.ErrRemoteUnavailable, errors.New("exit status 128")))

	_, err := f.resolver.Resolve(context.Background(), remote, "main")
	require.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}

func TestResolve_CustomURLTemplate(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	git := mocks.NewMockRemoteGit(ctrl)
	git.EXPECT().ListRefs(gomock.Any(), "ssh://git@github.com/acme/widgets").Return(advertised(), nil)

	r := resolver.New(git, nil, nil, nil, "ssh://git@{host}/{owner}/{repo}")
	info, err := r.Resolve(context.Background(), remote, "main")
	require.NoError(t, err)
	assert.Equal(t, mainCommit, info.Commit)
}

func TestPin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tree := domain.NewDirectory()
	sum := make([]byte, 32)
	sum[0] = 1
	want, err := domain.NewSHA256Digest(sum)
	require.NoError(t, err)

	f.expectVertex()
	f.git.EXPECT().FetchTree(gomock.Any(), cloneURL, mainCommit).Return(tree, nil)
	f.archiver.EXPECT().Encode(tree).Return([]byte("archive"), nil)
	f.digester.EXPECT().Digest(gomock.Any()).Return(want, nil)
	f.vertex.EXPECT().Complete(nil)

	info := domain.RevisionInfo{Remote: remote, Ref: "main", Commit: mainCommit, ResolvedAt: resolved.UTC()}
	entry, err := f.resolver.Pin(context.Background(), "widgets", info)
	require.NoError(t, err)

	assert.Equal(t, domain.LockEntry{
		Name:        "widgets",
		Remote:      remote,
		Branch:      "main",
		Rev:         mainCommit,
		Digest:      want,
		URL:         "https://github.com/acme/widgets/archive/" + mainCommit + ".tar.gz",
		LastUpdated: resolved.UTC(),
	}, entry)
}

func TestPin_IncompleteExportCompletesVertexWithError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	exportErr := zerr.Wrap(domain.ErrIncompleteExport, "missing object")

	f.expectVertex()
	f.git.EXPECT().FetchTree(gomock.Any(), cloneURL, mainCommit).Return(nil, exportErr)
	f.vertex.EXPECT().Complete(exportErr)

	info := domain.RevisionInfo{Remote: remote, Ref: "main", Commit: mainCommit}
	_, err := f.resolver.Pin(context.Background(), "widgets", info)
	require.ErrorIs(t, err, domain.ErrIncompleteExport)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, mainCommit, zErr.Metadata()["commit"])
}

func TestLock_HelloTreeDigest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	git := mocks.NewMockRemoteGit(ctrl)
	telemetry := mocks.NewMockTelemetry(ctrl)
	vertex := mocks.NewMockVertex(ctrl)

	tree := domain.NewDirectory()
	require.NoError(t, tree.Put("hello.txt", &domain.Regular{Contents: []byte("hi\n")}))

	git.EXPECT().ListRefs(gomock.Any(), cloneURL).Return(advertised(), nil)
	git.EXPECT().FetchTree(gomock.Any(), cloneURL, branchCommit).Return(tree, nil)
	telemetry.EXPECT().Record(gomock.Any(), "pin hello 111111111111").
		DoAndReturn(func(ctx context.Context, _ string) (context.Context, ports.Vertex) {
			return ports.ContextWithVertex(ctx, vertex), vertex
		})
	vertex.EXPECT().Stdout().Return(&discard{})
	vertex.EXPECT().Complete(nil)

	r := resolver.New(git, nar.New(), digest.New(), telemetry, domain.DefaultURLTemplate)
	entry, err := r.Lock(context.Background(), "hello", remote, "master")
	require.NoError(t, err)

	assert.Equal(t, "1cn9sjpa948fmcwb1sr2xnxymmh2fp1j8yag8vnv220h735l557v", entry.Digest.Base32())
	assert.Equal(t, "sha256-+5RCyzgQCLHtRk95JMN1Atbqu+0i67A4qw6RpK7UybI=", entry.Digest.SRI())
	assert.Equal(t, "master", entry.Branch)
	assert.Equal(t, branchCommit, entry.Rev)
}

type discard struct{}

func (*discard) Write(p []byte) (int, error) { return len(p), nil }
