package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-banners/internal/banner"
	"storefront-banners/internal/engine"
	"storefront-banners/internal/storage"
)

const fixture = `
banners:
  - name: Summer sale
    kind: hero
    layout: split
    priority: 10
    displayOn: [home, cart]
    background:
      type: gradient
      gradientColors: ["#ff0", "#f0f"]
      gradientDirection: to right
    elements:
      - type: text
        content: Up to 50% off
        style: {fontSize: 32px, fontWeight: 700}
      - type: button
        content: Shop
        href: https://shop.example.com/sale
    displayRules:
      startDate: 2024-06-01T00:00:00Z
      endDate: 2024-08-31T23:59:59Z
      showToUsers: [guest]
      maxViews: 1000
  - name: Staff notice
    priority: 1
    displayOn: [all]
    background: {type: solid, color: "#000"}
    elements: [{type: text, content: Internal}]
    displayRules:
      showToRoles: [staff]
`

func TestDecode(t *testing.T) {
	f, err := Decode(strings.NewReader(fixture))
	require.NoError(t, err)
	require.Len(t, f.Banners, 2)

	sale := f.Banners[0]
	assert.Equal(t, banner.KindHero, sale.Kind)
	assert.Equal(t, []string{"home", "cart"}, sale.DisplayOn)
	assert.Equal(t, banner.ToRight, sale.Background.GradientDirection)
	assert.Equal(t, "https://shop.example.com/sale", sale.Elements[1].Href)
	require.NotNil(t, sale.DisplayRules)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), sale.DisplayRules.StartDate.UTC())
	assert.Equal(t, int64(1000), *sale.DisplayRules.MaxViews)
	assert.Equal(t, []banner.Audience{banner.AudienceGuest}, sale.DisplayRules.ShowToUsers)
}

func TestApply(t *testing.T) {
	st := storage.NewMemoryStore()
	admin := engine.NewAdminService(st, banner.NewValidator(), "home")
	f, err := Decode(strings.NewReader(fixture))
	require.NoError(t, err)

	created, err := Apply(context.Background(), admin, f)
	require.NoError(t, err)
	require.Len(t, created, 2)

	all, err := st.List(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "Summer sale", all[0].Name)
}

func TestApply_StopsAtInvalidEntry(t *testing.T) {
	st := storage.NewMemoryStore()
	admin := engine.NewAdminService(st, banner.NewValidator(), "home")
	f := File{Banners: []banner.CreateInput{
		{Name: "ok", Background: &banner.Background{Type: banner.BackgroundSolid}, Elements: []banner.Element{{Type: banner.ElementText}}},
		{Name: "bad", Kind: "not-a-real-kind", Background: &banner.Background{Type: banner.BackgroundSolid}, Elements: []banner.Element{{Type: banner.ElementText}}},
	}}

	created, err := Apply(context.Background(), admin, f)
	require.Error(t, err)
	assert.True(t, banner.IsValidation(err))
	assert.Contains(t, err.Error(), `"bad"`)
	assert.Len(t, created, 1)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banners.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Banners, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
