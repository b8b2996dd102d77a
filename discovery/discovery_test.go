package discovery_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skekre98/hostkit/config"
	"github.com/skekre98/hostkit/core"
	"github.com/skekre98/hostkit/discovery"
	"github.com/skekre98/hostkit/options"
)

type named struct {
	core.Funcs
	id string
}

func factory(id string, built *[]string) discovery.Factory {
	return func(env discovery.Env) (core.Contributor, error) {
		*built = append(*built, id)
		return &named{id: id}, nil
	}
}

func newRegistry(t *testing.T, built *[]string, ids ...string) *discovery.Registry {
	t.Helper()
	reg := discovery.NewRegistry()
	for _, id := range ids {
		require.NoError(t, reg.Register(id, factory(id, built)))
	}
	return reg
}

func TestDiscover_PreservesManifestOrder(t *testing.T) {
	var built []string
	reg := newRegistry(t, &built, "a", "b", "c")

	got, err := discovery.Discover(discovery.Manifest{Contributors: []string{"c", "a", "b"}}, reg, discovery.Env{})
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.(*named).id
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.Equal(t, []string{"c", "a", "b"}, built)
}

func TestDiscover_Errors(t *testing.T) {
	var built []string
	reg := newRegistry(t, &built, "a")
	require.NoError(t, reg.Register("nil", func(discovery.Env) (core.Contributor, error) { return nil, nil }))
	require.NoError(t, reg.Register("fails", func(discovery.Env) (core.Contributor, error) { return nil, errors.New("no config") }))
	require.NoError(t, reg.Register("panics", func(discovery.Env) (core.Contributor, error) { panic("bad") }))

	tests := []struct {
		name      string
		manifest  []string
		wantIndex int
		wantErr   error
	}{
		{"unknown id", []string{"a", "missing"}, 1, discovery.ErrUnknownContributor},
		{"duplicate id", []string{"a", "a"}, 1, discovery.ErrDuplicateContributor},
		{"empty id", []string{""}, 0, discovery.ErrEmptyID},
		{"nil contributor", []string{"nil"}, 0, discovery.ErrNilContributor},
		{"factory panic", []string{"panics"}, 0, core.ErrPanic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := discovery.Discover(discovery.Manifest{Contributors: tt.manifest}, reg, discovery.Env{})
			assert.Nil(t, got)

			var derr *discovery.DiscoveryError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.wantIndex, derr.Index)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("factory error", func(t *testing.T) {
		_, err := discovery.Discover(discovery.Manifest{Contributors: []string{"fails"}}, reg, discovery.Env{})
		var derr *discovery.DiscoveryError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "fails", derr.ID)
		assert.Contains(t, err.Error(), "no config")
	})
}

func TestDiscover_EmptyManifest(t *testing.T) {
	got, err := discovery.Discover(discovery.Manifest{}, discovery.NewRegistry(), discovery.Env{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRegistry_Register(t *testing.T) {
	var built []string
	reg := newRegistry(t, &built, "web", "actuator")

	err := reg.Register("web", factory("web", &built))
	assert.ErrorIs(t, err, discovery.ErrDuplicateContributor)
	assert.ErrorIs(t, reg.Register("", factory("x", &built)), discovery.ErrEmptyID)
	assert.Error(t, reg.Register("nilfactory", nil))

	assert.Equal(t, []string{"actuator", "web"}, reg.IDs())
	_, ok := reg.Lookup("web")
	assert.True(t, ok)
}

func TestRegister_DefaultPanicsOnDuplicate(t *testing.T) {
	var built []string
	discovery.Register("discovery-test-dup", factory("x", &built))
	assert.Panics(t, func() { discovery.Register("discovery-test-dup", factory("x", &built)) })
}

func TestManifest(t *testing.T) {
	m, err := discovery.LoadManifest(strings.NewReader("contributors:\n  - web\n  - actuator\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"web", "actuator"}, m.Contributors)

	m, err = discovery.LoadManifest(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, m.Contributors)

	_, err = discovery.LoadManifest(strings.NewReader("contributors: {"))
	assert.Error(t, err)

	cfg := config.Root{Contributors: []string{"x", "y"}}
	assert.Equal(t, []string{"x", "y"}, discovery.ManifestFrom(cfg).Contributors)
}

func TestDiscover_FeedsDelegate(t *testing.T) {
	var order []string
	reg := discovery.NewRegistry()
	for _, id := range []string{"first", "second"} {
		require.NoError(t, reg.Register(id, func(discovery.Env) (core.Contributor, error) {
			return &core.Funcs{
				Options: func(_ core.Host, b *options.Builder) error {
					order = append(order, id)
					b.Set("last", id)
					return nil
				},
			}, nil
		}))
	}

	contributors, err := discovery.Discover(discovery.Manifest{Contributors: []string{"second", "first"}}, reg, discovery.Env{})
	require.NoError(t, err)

	app := core.NewApp("discovered", slog.New(slog.NewTextHandler(io.Discard, nil)), contributors...)
	require.NoError(t, app.Start(context.Background()))
	defer app.Stop(context.Background())

	assert.Equal(t, []string{"second", "first"}, order)
	c, err := app.Container()
	require.NoError(t, err)
	last, _ := core.MustLookup[options.Options](c).Value("last")
	assert.Equal(t, "first", last)
}
