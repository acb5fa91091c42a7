package palette

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultChainColor is used for a chain whose provider has no configured colour.
	DefaultChainColor = "#4185F4"
	// DefaultProviderColor is used for a provider with no configured colour.
	DefaultProviderColor = "#000000"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Palette maps provider names to chart colours.
type Palette struct {
	Providers     map[string]string `yaml:"providers"`
	ChainFallback string            `yaml:"chainFallback"`
	ProvFallback  string            `yaml:"providerFallback"`
}

// Default returns the built-in provider colours.
func Default() *Palette {
	return &Palette{
		Providers: map[string]string{
			"Gelato":   "#ff3b57",
			"Conduit":  "#46BDC6",
			"Alchemy":  "#4185F4",
			"Caldera":  "#EC6731",
			"Altlayer": "#B28AFE",
		},
		ChainFallback: DefaultChainColor,
		ProvFallback:  DefaultProviderColor,
	}
}

// Load reads a palette from a YAML file. An empty path or a file that does not exist yields the
// defaults. Colours in the file override the defaults per provider.
func Load(path string) (*Palette, error) {
	p := Default()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read palette: %w", err)
	}
	if err := p.merge(data); err != nil {
		return nil, err
	}
	return p, nil
}

// Parse decodes YAML on top of the defaults.
func Parse(data []byte) (*Palette, error) {
	p := Default()
	if err := p.merge(data); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Palette) merge(data []byte) error {
	var in Palette
	if err := yaml.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode palette: %w", err)
	}
	for name, c := range in.Providers {
		if !hexColor.MatchString(c) {
			return fmt.Errorf("provider %q: invalid colour %q", name, c)
		}
		p.Providers[name] = c
	}
	for _, c := range []*string{&in.ChainFallback, &in.ProvFallback} {
		if *c != "" && !hexColor.MatchString(*c) {
			return fmt.Errorf("invalid fallback colour %q", *c)
		}
	}
	if in.ChainFallback != "" {
		p.ChainFallback = in.ChainFallback
	}
	if in.ProvFallback != "" {
		p.ProvFallback = in.ProvFallback
	}
	return nil
}

// ProviderColor returns the colour of a provider slice.
func (p *Palette) ProviderColor(provider string) string {
	if c, ok := p.Providers[provider]; ok {
		return c
	}
	return p.ProvFallback
}

// ChainColor returns the colour of a chain, taken from its provider.
func (p *Palette) ChainColor(provider string) string {
	if c, ok := p.Providers[provider]; ok {
		return c
	}
	return p.ChainFallback
}
