// Package seed loads banner fixtures from YAML and creates them through the
// admin service, so fixtures get the same validation as API writes.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"storefront-banners/internal/banner"
)

// File is the fixture layout:
//
//	banners:
//	  - name: Summer sale
//	    priority: 10
//	    displayOn: [home]
//	    background: {type: solid, color: "#fff"}
//	    elements: [{type: text, content: Hello}]
type File struct {
	Banners []banner.CreateInput `yaml:"banners"`
}

// Creator is the admin write path.
type Creator interface {
	Create(ctx context.Context, in banner.CreateInput) (*banner.Banner, error)
}

func LoadFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to open seed file %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (File, error) {
	var out File
	if err := yaml.NewDecoder(r).Decode(&out); err != nil {
		return File{}, fmt.Errorf("failed to decode seed file: %w", err)
	}
	return out, nil
}

// Apply creates every fixture in order and stops at the first failure,
// reporting which entry broke.
func Apply(ctx context.Context, c Creator, f File) ([]*banner.Banner, error) {
	out := make([]*banner.Banner, 0, len(f.Banners))
	for i, in := range f.Banners {
		b, err := c.Create(ctx, in)
		if err != nil {
			return out, fmt.Errorf("banner %d (%q): %w", i, in.Name, err)
		}
		out = append(out, b)
	}
	return out, nil
}
