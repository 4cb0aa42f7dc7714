package commands_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gridlock/cmd/gridlock/commands"
	"go.trai.ch/gridlock/internal/app"
	"go.trai.ch/gridlock/internal/build"
	"go.trai.ch/gridlock/internal/core/domain"
)

const helloNix32 = "sha256:1cn9sjpa948fmcwb1sr2xnxymmh2fp1j8yag8vnv220h735l557v"

type mockApp struct {
	initFunc   func(ctx context.Context, lockfile string) (string, error)
	addFunc    func(ctx context.Context, opts app.AddOptions) (domain.LockEntry, error)
	showFunc   func(ctx context.Context, opts app.ShowOptions) ([]domain.LockEntry, error)
	updateFunc func(ctx context.Context, opts app.UpdateOptions) (app.UpdateResult, error)
	narFunc    func(ctx context.Context, opts app.NarOptions, stdout io.Writer) (app.NarResult, error)
	hashFunc   func(ctx context.Context, opts app.ArchiveOptions) (domain.ContentDigest, error)
}

func (m *mockApp) Init(ctx context.Context, lockfile string) (string, error) {
	if m.initFunc != nil {
		return m.initFunc(ctx, lockfile)
	}
	return lockfile, nil
}

func (m *mockApp) Add(ctx context.Context, opts app.AddOptions) (domain.LockEntry, error) {
	if m.addFunc != nil {
		return m.addFunc(ctx, opts)
	}
	return domain.LockEntry{}, nil
}

func (m *mockApp) Show(ctx context.Context, opts app.ShowOptions) ([]domain.LockEntry, error) {
	if m.showFunc != nil {
		return m.showFunc(ctx, opts)
	}
	return nil, nil
}

func (m *mockApp) Update(ctx context.Context, opts app.UpdateOptions) (app.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, opts)
	}
	return app.UpdateResult{}, nil
}

func (m *mockApp) Nar(ctx context.Context, opts app.NarOptions, stdout io.Writer) (app.NarResult, error) {
	if m.narFunc != nil {
		return m.narFunc(ctx, opts, stdout)
	}
	return app.NarResult{}, nil
}

func (m *mockApp) Hash(ctx context.Context, opts app.ArchiveOptions) (domain.ContentDigest, error) {
	if m.hashFunc != nil {
		return m.hashFunc(ctx, opts)
	}
	return domain.ContentDigest{}, nil
}

func execute(t *testing.T, a commands.Application, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(a)
	cli.SetLocation(time.UTC)
	out := new(bytes.Buffer)
	cli.SetOutput(out, out)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return out.String(), err
}

func helloDigest(t *testing.T) domain.ContentDigest {
	t.Helper()
	d, err := domain.ParseContentDigest(helloNix32)
	require.NoError(t, err)
	return d
}

func TestCommands_Init(t *testing.T) {
	var got string
	mock := &mockApp{
		initFunc: func(_ context.Context, lockfile string) (string, error) {
			got = lockfile
			return "deps.json", nil
		},
	}

	out, err := execute(t, mock, "init", "--lockfile", "deps.json")
	require.NoError(t, err)
	assert.Equal(t, "deps.json", got)
	assert.Equal(t, "Initialized deps.json\n", out)

	mock.initFunc = func(context.Context, string) (string, error) {
		return "", domain.ErrAlreadyExists
	}
	_, err = execute(t, mock, "init")
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.NotErrorIs(t, err, domain.ErrUsage)
}

func TestCommands_Add(t *testing.T) {
	var captured app.AddOptions
	mock := &mockApp{
		addFunc: func(_ context.Context, opts app.AddOptions) (domain.LockEntry, error) {
			captured = opts
			return domain.LockEntry{
				Name:   "w",
				Branch: "v1.0",
				Rev:    "0123456789abcdef0123456789abcdef01234567",
			}, nil
		},
	}

	out, err := execute(t, mock, "add", "acme/widgets@v1.0", "--name", "w", "-l", "x.json")
	require.NoError(t, err)
	assert.Equal(t, app.AddOptions{Lockfile: "x.json", Source: "acme/widgets@v1.0", Name: "w"}, captured)
	assert.Equal(t, "Added w (v1.0) at 0123456789abcdef0123456789abcdef01234567\n", out)
}

func TestCommands_UsageErrors(t *testing.T) {
	mock := &mockApp{
		addFunc: func(context.Context, app.AddOptions) (domain.LockEntry, error) {
			panic("should not be called")
		},
	}

	for name, args := range map[string][]string{
		"missing argument": {"add"},
		"extra argument":   {"init", "surplus"},
		"unknown flag":     {"show", "--bogus"},
		"unknown command":  {"frobnicate"},
		"bad log format":   {"show", "--log-format", "xml"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, mock, args...)
			require.ErrorIs(t, err, domain.ErrUsage)
		})
	}
}

func TestCommands_LogFormat(t *testing.T) {
	var got domain.LogFormat
	cli := commands.New(&mockApp{})
	cli.OnLogFormat(func(f domain.LogFormat) { got = f })
	cli.SetOutput(io.Discard, io.Discard)
	cli.SetArgs([]string{"show", "--log-format", "json"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, domain.LogFormatJSON, got)
}

func showEntries(t *testing.T) []domain.LockEntry {
	t.Helper()
	nixpkgs := domain.Remote{Host: "github.com", Owner: "NixOS", Repo: "nixpkgs"}
	tools := domain.Remote{Host: "git.example.com", Owner: "acme", Repo: "tools"}
	return []domain.LockEntry{
		{
			Name:        "nixpkgs",
			Remote:      nixpkgs,
			Branch:      "nixos-unstable",
			Rev:         "0123456789abcdef0123456789abcdef01234567",
			Digest:      helloDigest(t),
			LastUpdated: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		},
		{
			Name:   "tools",
			Remote: tools,
			Branch: "v1.2.0",
			Rev:    "fedcba9876543210fedcba9876543210fedcba98",
			Digest: helloDigest(t),
		},
	}
}

func TestCommands_ShowGolden(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var captured app.ShowOptions
	mock := &mockApp{
		showFunc: func(_ context.Context, opts app.ShowOptions) ([]domain.LockEntry, error) {
			captured = opts
			return showEntries(t), nil
		},
	}

	out, err := execute(t, mock, "show", "nixpkgs", "tools")
	require.NoError(t, err)
	assert.Equal(t, []string{"nixpkgs", "tools"}, captured.Names)

	g := goldie.New(t)
	g.Assert(t, "show", []byte(out))
}

func TestCommands_ShowJSON(t *testing.T) {
	mock := &mockApp{
		showFunc: func(context.Context, app.ShowOptions) ([]domain.LockEntry, error) {
			return showEntries(t), nil
		},
	}

	out, err := execute(t, mock, "show", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"nixpkgs": {`)
	assert.Contains(t, out, `"host": "git.example.com"`)
	assert.Contains(t, out, `"last_updated": null`)
}

func TestCommands_ShowNotFound(t *testing.T) {
	mock := &mockApp{
		showFunc: func(context.Context, app.ShowOptions) ([]domain.LockEntry, error) {
			return nil, domain.ErrNotFound
		},
	}

	_, err := execute(t, mock, "show", "ghost")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCommands_Update(t *testing.T) {
	t.Run("up to date", func(t *testing.T) {
		out, err := execute(t, &mockApp{}, "update")
		require.NoError(t, err)
		assert.Equal(t, "up to date\n", out)
	})

	t.Run("lists changes and passes flags", func(t *testing.T) {
		var captured app.UpdateOptions
		mock := &mockApp{
			updateFunc: func(_ context.Context, opts app.UpdateOptions) (app.UpdateResult, error) {
				captured = opts
				return app.UpdateResult{Changes: []domain.LockfileChange{{
					Name: "a",
					From: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
					To:   "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
				}}}, nil
			},
		}

		out, err := execute(t, mock, "update", "a", "--dry-run", "-j", "3")
		require.NoError(t, err)
		assert.Equal(t, app.UpdateOptions{Names: []string{"a"}, DryRun: true, Jobs: 3}, captured)
		assert.Equal(t, "a aaaaaaaaaaaa → bbbbbbbbbbbb\ndry run, lockfile not written\n", out)
	})

	t.Run("propagates failure", func(t *testing.T) {
		mock := &mockApp{
			updateFunc: func(context.Context, app.UpdateOptions) (app.UpdateResult, error) {
				return app.UpdateResult{}, domain.ErrRemoteUnavailable
			},
		}
		_, err := execute(t, mock, "update")
		require.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	})
}

func TestCommands_Nar(t *testing.T) {
	var captured app.NarOptions
	mock := &mockApp{
		narFunc: func(_ context.Context, opts app.NarOptions, stdout io.Writer) (app.NarResult, error) {
			captured = opts
			_, _ = stdout.Write([]byte("nar bytes"))
			return app.NarResult{Size: 9}, nil
		},
	}

	out, err := execute(t, mock, "nar", "src.tar.gz", "--strip-components", "1")
	require.NoError(t, err)
	assert.Equal(t, "nar bytes", out)
	assert.Equal(t, app.NarOptions{
		ArchiveOptions: app.ArchiveOptions{
			Source:        "src.tar.gz",
			ImportOptions: domain.ImportOptions{StripComponents: 1},
		},
	}, captured)
}

func TestCommands_Hash(t *testing.T) {
	var captured app.ArchiveOptions
	mock := &mockApp{
		hashFunc: func(_ context.Context, opts app.ArchiveOptions) (domain.ContentDigest, error) {
			captured = opts
			return helloDigest(t), nil
		},
	}

	out, err := execute(t, mock, "hash", "./dir", "--include-vcs")
	require.NoError(t, err)
	assert.True(t, captured.IncludeVCS)
	assert.Equal(t, helloNix32+"\nsha256-+5RCyzgQCLHtRk95JMN1Atbqu+0i67A4qw6RpK7UybI=\n", out)

	mock.hashFunc = func(context.Context, app.ArchiveOptions) (domain.ContentDigest, error) {
		return domain.ContentDigest{}, errors.New("boom")
	}
	_, err = execute(t, mock, "hash", "./dir")
	require.EqualError(t, err, "boom")
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, build.Version)
	assert.Contains(t, out, "commit: "+build.Commit)
}
