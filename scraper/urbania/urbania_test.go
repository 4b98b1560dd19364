package urbania

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housing-ranker/utils"
)

func TestSearchURL(t *testing.T) {
	got := SearchURL("alquiler", "San Juan de Lurigancho", 2)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "urbania.pe", u.Host)
	assert.Equal(t, "/buscar/alquiler-de-departamentos", u.Path)
	assert.Equal(t, "san-juan-de-lurigancho", u.Query().Get("districts"))
	assert.Equal(t, "2", u.Query().Get("page"))
}

func TestSearchURLFoldsAccents(t *testing.T) {
	u, err := url.Parse(SearchURL("alquiler", "BREÑA", 1))
	require.NoError(t, err)
	assert.Equal(t, "brena", u.Query().Get("districts"))
}

func TestNewDefaults(t *testing.T) {
	f := New(Options{}, utils.NewDiscardLogger())
	assert.Equal(t, "alquiler", f.opts.Operation)
	assert.Equal(t, 1, f.opts.Pages)
}

func TestFetchWithoutDistricts(t *testing.T) {
	_, err := New(Options{}, utils.NewDiscardLogger()).Fetch(context.Background())
	assert.Error(t, err)
}
