package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sensordash/internal/store/memory"
	"github.com/wolfeidau/sensordash/internal/templates"
	"github.com/wolfeidau/sensordash/internal/transport"
)

func newState(t *testing.T, mode transport.Mode) (*State, string) {
	t.Helper()

	dir := t.TempDir()
	write(t, dir, "home.html", "<h1>{{ .title }}</h1>")

	tpl, err := templates.NewFromDir(dir)
	require.NoError(t, err)

	st, err := New(tpl, memory.NewStore(), mode)
	require.NoError(t, err)
	return st, dir
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestNew_requiresHandles(t *testing.T) {
	tpl, err := templates.New(os.DirFS(t.TempDir()))
	require.NoError(t, err)

	_, err = New(nil, memory.NewStore(), transport.Development)
	require.Error(t, err)

	_, err = New(tpl, nil, transport.Development)
	require.Error(t, err)

	st, err := New(tpl, memory.NewStore(), "")
	require.NoError(t, err)
	require.Equal(t, transport.DefaultMode(), st.Mode())
}

func TestRenderPage_developmentReloads(t *testing.T) {
	st, dir := newState(t, transport.Development)
	require.True(t, st.Dev())

	out, err := st.RenderPage("home.html", templates.Context{"title": "Hi"})
	require.NoError(t, err)
	require.Equal(t, "<h1>Hi</h1>", out)

	write(t, dir, "home.html", "<h2>{{ .title }}</h2>")

	out, err = st.RenderPage("home.html", templates.Context{"title": "Hi"})
	require.NoError(t, err)
	require.Equal(t, "<h2>Hi</h2>", out)
}

func TestRenderPage_developmentReloadFailure(t *testing.T) {
	st, dir := newState(t, transport.Development)

	write(t, dir, "home.html", "<h2>{{ .title </h2>")

	_, err := st.RenderPage("home.html", templates.Context{"title": "Hi"})
	var parseErr *templates.ParseError
	require.ErrorAs(t, err, &parseErr)

	// the last good set still renders
	out, err := st.Templates().Render("home.html", templates.Context{"title": "Hi"})
	require.NoError(t, err)
	require.Equal(t, "<h1>Hi</h1>", out)
}

func TestRenderPage_productionNeverReloads(t *testing.T) {
	st, dir := newState(t, transport.Production)
	require.False(t, st.Dev())

	write(t, dir, "home.html", "<h2>{{ .title }}</h2>")

	out, err := st.RenderPage("home.html", templates.Context{"title": "Hi"})
	require.NoError(t, err)
	require.Equal(t, "<h1>Hi</h1>", out)
}

func TestRenderPage_missingBinding(t *testing.T) {
	st, _ := newState(t, transport.Production)

	_, err := st.RenderPage("home.html", templates.Context{})
	var renderErr *templates.RenderError
	require.ErrorAs(t, err, &renderErr)
}
