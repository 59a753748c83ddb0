package banner

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreate() CreateInput {
	return CreateInput{
		Name:       "Summer sale",
		Kind:       KindHero,
		Layout:     LayoutSplit,
		DisplayOn:  []string{"home", "cart"},
		Background: &Background{Type: BackgroundGradient, GradientColors: []string{"#f00", "#00f"}, GradientDirection: ToBottomRight},
		Elements: []Element{
			{Type: ElementText, Content: "Up to 50% off", Style: Style{"fontSize": "2rem", "fontWeight": 700}},
			{Type: ElementButton, Content: "Shop now", Href: "https://shop.example.com/sale", Target: "_blank"},
		},
		ContainerStyle: Style{"padding": "24px", "x-custom": true},
	}
}

func fields(err error) []string {
	ve, ok := err.(*ValidationError)
	if !ok {
		return nil
	}
	out := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		out[i] = f.Field
	}
	return out
}

func TestValidateCreate_OK(t *testing.T) {
	assert.NoError(t, NewValidator().Create(validCreate()))
}

func TestValidateCreate_Rejects(t *testing.T) {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-24 * time.Hour)
	negative := int64(-1)
	opacity := 1.5

	tests := []struct {
		name   string
		mutate func(*CreateInput)
		field  string
	}{
		{"missing name", func(in *CreateInput) { in.Name = "" }, "name"},
		{"unknown kind", func(in *CreateInput) { in.Kind = "not-a-real-kind" }, "kind"},
		{"unknown layout", func(in *CreateInput) { in.Layout = "diagonal" }, "layout"},
		{"missing background", func(in *CreateInput) { in.Background = nil }, "background"},
		{"unknown background type", func(in *CreateInput) { in.Background = &Background{Type: "pattern"} }, "background.type"},
		{"gradient without colors", func(in *CreateInput) { in.Background.GradientColors = nil }, "background.gradientColors"},
		{"gradient without direction", func(in *CreateInput) { in.Background.GradientDirection = "" }, "background.gradientDirection"},
		{"bad gradient direction", func(in *CreateInput) { in.Background.GradientDirection = "to the moon" }, "background.gradientDirection"},
		{"relative image url", func(in *CreateInput) {
			in.Background = &Background{Type: BackgroundImage, ImageURL: "/img/hero.png"}
		}, "background.imageUrl"},
		{"opacity above one", func(in *CreateInput) {
			in.Background = &Background{Type: BackgroundSolid, OverlayOpacity: &opacity}
		}, "background.overlayOpacity"},
		{"missing elements", func(in *CreateInput) { in.Elements = nil }, "elements"},
		{"unknown element type", func(in *CreateInput) { in.Elements[0].Type = "carousel" }, "elements[0].type"},
		{"relative href", func(in *CreateInput) { in.Elements[1].Href = "sale" }, "elements[1].href"},
		{"bad target", func(in *CreateInput) { in.Elements[1].Target = "_top" }, "elements[1].target"},
		{"nested style value", func(in *CreateInput) { in.Elements[0].Style = Style{"x": map[string]any{"y": 1}} }, "elements[0].style"},
		{"boolean color", func(in *CreateInput) { in.ContainerStyle = Style{"color": true} }, "containerStyle"},
		{"empty page", func(in *CreateInput) { in.DisplayOn = []string{""} }, "displayOn[0]"},
		{"unknown audience", func(in *CreateInput) {
			in.DisplayRules = &DisplayRules{ShowToUsers: []Audience{"vip"}}
		}, "displayRules.showToUsers[0]"},
		{"negative cap", func(in *CreateInput) { in.DisplayRules = &DisplayRules{MaxViews: &negative} }, "displayRules.maxViews"},
		{"inverted window", func(in *CreateInput) {
			in.DisplayRules = &DisplayRules{StartDate: &start, EndDate: &end}
		}, "displayRules.endDate"},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreate()
			tt.mutate(&in)

			err := v.Create(in)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Contains(t, fields(err), tt.field)
		})
	}
}

func TestValidateCreate_AllEnumValues(t *testing.T) {
	v := NewValidator()
	for _, k := range []Kind{KindHero, KindPromotional, KindAnnouncement, KindCTA, KindTestimonial, KindCustom} {
		in := validCreate()
		in.Kind = k
		assert.NoError(t, v.Create(in), k)
	}
	for _, l := range []Layout{LayoutCentered, LayoutSplit, LayoutOverlay, LayoutCard, LayoutFullWidth, LayoutFloating} {
		in := validCreate()
		in.Layout = l
		assert.NoError(t, v.Create(in), l)
	}
	for _, d := range []GradientDirection{ToTop, ToBottom, ToLeft, ToRight, ToTopLeft, ToTopRight, ToBottomLeft, ToBottomRight} {
		in := validCreate()
		in.Background.GradientDirection = d
		assert.NoError(t, v.Create(in), d)
	}
}

func TestValidatePatch(t *testing.T) {
	v := NewValidator()
	name := "renamed"
	empty := ""
	kind := Kind("bogus")

	assert.NoError(t, v.Patch(Patch{}))
	assert.NoError(t, v.Patch(Patch{Name: &name, DisplayOn: []string{"all"}}))

	err := v.Patch(Patch{Name: &empty})
	assert.Contains(t, fields(err), "name")

	err = v.Patch(Patch{Kind: &kind})
	assert.Contains(t, fields(err), "kind")

	err = v.Patch(Patch{Background: &Background{Type: BackgroundGradient}})
	assert.Contains(t, fields(err), "background.gradientColors")
}

func TestCreateInputBanner_Defaults(t *testing.T) {
	in := CreateInput{Name: "n", Background: &Background{Type: BackgroundSolid}, Elements: []Element{{Type: ElementText}}}

	b := in.Banner("landing")
	assert.True(t, b.Active)
	assert.Equal(t, KindPromotional, b.Kind)
	assert.Equal(t, LayoutCentered, b.Layout)
	assert.Equal(t, []string{"landing"}, b.DisplayOn)

	off := false
	in.Active = &off
	assert.False(t, in.Banner("home").Active)
}

func TestPatchApply_KeepsCounters(t *testing.T) {
	b := &Banner{Name: "a", Priority: 1, Views: 10, Clicks: 2, DisplayOn: []string{"home"}}
	prio := 3
	active := true

	Patch{Priority: &prio, Active: &active}.Apply(b)
	assert.Equal(t, 3, b.Priority)
	assert.True(t, b.Active)
	assert.Equal(t, "a", b.Name)
	assert.Equal(t, int64(10), b.Views)
	assert.Equal(t, int64(2), b.Clicks)
	assert.Equal(t, []string{"home"}, b.DisplayOn)
}

func TestShowsOn(t *testing.T) {
	b := &Banner{DisplayOn: []string{"home", "cart"}}
	assert.True(t, b.ShowsOn("home"))
	assert.False(t, b.ShowsOn("checkout"))

	b.DisplayOn = []string{PageAll}
	assert.True(t, b.ShowsOn("checkout"))
}

func TestClone_IsDeep(t *testing.T) {
	max := int64(5)
	b := &Banner{
		DisplayOn:      []string{"home"},
		ContainerStyle: Style{"color": "red"},
		Elements:       []Element{{Type: ElementText, Style: Style{"padding": "1px"}}},
		DisplayRules:   &DisplayRules{ShowToRoles: []string{"admin"}, MaxViews: &max},
	}
	c := b.Clone()

	c.DisplayOn[0] = "cart"
	c.ContainerStyle["color"] = "blue"
	c.Elements[0].Style["padding"] = "2px"
	c.DisplayRules.ShowToRoles[0] = "staff"
	*c.DisplayRules.MaxViews = 9

	assert.Equal(t, "home", b.DisplayOn[0])
	assert.Equal(t, "red", b.ContainerStyle["color"])
	assert.Equal(t, "1px", b.Elements[0].Style["padding"])
	assert.Equal(t, "admin", b.DisplayRules.ShowToRoles[0])
	assert.Equal(t, int64(5), *b.DisplayRules.MaxViews)
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError("kind", "is not allowed")
	assert.Equal(t, "validation failed: kind: is not allowed", err.Error())
	assert.True(t, IsValidation(err))
	assert.False(t, IsValidation(ErrNotFound))
}

func TestPatchApply_EmptyObjectsClear(t *testing.T) {
	limit := int64(3)
	b := &Banner{
		Name:           "a",
		ContainerStyle: Style{"padding": "4px"},
		Animation:      &Animation{Type: "fade", Duration: 300},
		DisplayRules:   &DisplayRules{ShowToRoles: []string{"admin"}, MaxViews: &limit},
	}

	var keep Patch
	require.NoError(t, json.Unmarshal([]byte(`{"displayRules":null,"animation":null}`), &keep))
	keep.Apply(b)
	require.NotNil(t, b.DisplayRules)
	require.NotNil(t, b.Animation)

	var reset Patch
	require.NoError(t, json.Unmarshal([]byte(`{"displayRules":{},"animation":{},"containerStyle":{}}`), &reset))
	reset.Apply(b)
	assert.Nil(t, b.DisplayRules)
	assert.Nil(t, b.Animation)
	assert.Nil(t, b.ContainerStyle)
}
