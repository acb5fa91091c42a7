package palette

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultColors(t *testing.T) {
	p := Default()
	assert.Equal(t, "#ff3b57", p.ProviderColor("Gelato"))
	assert.Equal(t, "#46BDC6", p.ChainColor("Conduit"))
	assert.Equal(t, DefaultProviderColor, p.ProviderColor("Unknown"))
	assert.Equal(t, DefaultChainColor, p.ChainColor("Unknown"))
	assert.Equal(t, DefaultChainColor, p.ChainColor(""))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), p)

	p, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestLoad_OverridesAndAdds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
providers:
  Gelato: "#000fff"
  Zeeve: "#123456"
chainFallback: "#abc"
`), 0o600))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "#000fff", p.ProviderColor("Gelato"))
	assert.Equal(t, "#123456", p.ProviderColor("Zeeve"))
	assert.Equal(t, "#46BDC6", p.ProviderColor("Conduit"))
	assert.Equal(t, "#abc", p.ChainColor("nobody"))
	assert.Equal(t, DefaultProviderColor, p.ProviderColor("nobody"))
}

func TestParse_RejectsBadInput(t *testing.T) {
	_, err := Parse([]byte("providers:\n  Gelato: red\n"))
	assert.ErrorContains(t, err, "Gelato")

	_, err = Parse([]byte("providerFallback: \"#zzzzzz\"\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("providers: [1, 2"))
	assert.Error(t, err)
}
