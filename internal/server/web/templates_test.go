package web

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_EscapesUserInput(t *testing.T) {
	r, err := newRenderer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, r.render(rec, pageSecrets, pageData{Authenticated: true, Name: "<script>x</script>"}))

	assert.NotContains(t, rec.Body.String(), "<script>x</script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
	assert.Contains(t, rec.Body.String(), `href="/logout"`)
}

func TestRenderer_UnknownPage(t *testing.T) {
	r, err := newRenderer()
	require.NoError(t, err)

	assert.Error(t, r.render(httptest.NewRecorder(), "nope", pageData{}))
}

func TestRenderer_AnonymousNav(t *testing.T) {
	r, err := newRenderer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, r.render(rec, pageIndex, pageData{}))
	assert.Contains(t, rec.Body.String(), `href="/register"`)
	assert.NotContains(t, rec.Body.String(), `href="/logout"`)
}
