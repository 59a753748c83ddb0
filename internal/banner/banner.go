// Package banner holds the banner domain model shared by the store, the
// targeting engine and the HTTP layer.
package banner

import "time"

// PageAll in DisplayOn matches every page.
const PageAll = "all"

// Kind is a presentation hint; the engine never evaluates it.
type Kind string

const (
	KindHero         Kind = "hero"
	KindPromotional  Kind = "promotional"
	KindAnnouncement Kind = "announcement"
	KindCTA          Kind = "cta"
	KindTestimonial  Kind = "testimonial"
	KindCustom       Kind = "custom"
)

func (k Kind) Valid() bool {
	switch k {
	case KindHero, KindPromotional, KindAnnouncement, KindCTA, KindTestimonial, KindCustom:
		return true
	}
	return false
}

// Layout is a presentation hint; the engine never evaluates it.
type Layout string

const (
	LayoutCentered  Layout = "centered"
	LayoutSplit     Layout = "split"
	LayoutOverlay   Layout = "overlay"
	LayoutCard      Layout = "card"
	LayoutFullWidth Layout = "full-width"
	LayoutFloating  Layout = "floating"
)

func (l Layout) Valid() bool {
	switch l {
	case LayoutCentered, LayoutSplit, LayoutOverlay, LayoutCard, LayoutFullWidth, LayoutFloating:
		return true
	}
	return false
}

type ElementType string

const (
	ElementText   ElementType = "text"
	ElementImage  ElementType = "image"
	ElementIcon   ElementType = "icon"
	ElementButton ElementType = "button"
	ElementBadge  ElementType = "badge"
	ElementStats  ElementType = "stats"
	ElementVideo  ElementType = "video"
)

func (t ElementType) Valid() bool {
	switch t {
	case ElementText, ElementImage, ElementIcon, ElementButton, ElementBadge, ElementStats, ElementVideo:
		return true
	}
	return false
}

type BackgroundType string

const (
	BackgroundGradient BackgroundType = "gradient"
	BackgroundSolid    BackgroundType = "solid"
	BackgroundImage    BackgroundType = "image"
	BackgroundVideo    BackgroundType = "video"
)

func (t BackgroundType) Valid() bool {
	switch t {
	case BackgroundGradient, BackgroundSolid, BackgroundImage, BackgroundVideo:
		return true
	}
	return false
}

// GradientDirection is a CSS-style compass token.
type GradientDirection string

const (
	ToTop         GradientDirection = "to top"
	ToBottom      GradientDirection = "to bottom"
	ToLeft        GradientDirection = "to left"
	ToRight       GradientDirection = "to right"
	ToTopLeft     GradientDirection = "to top left"
	ToTopRight    GradientDirection = "to top right"
	ToBottomLeft  GradientDirection = "to bottom left"
	ToBottomRight GradientDirection = "to bottom right"
)

func (d GradientDirection) Valid() bool {
	switch d {
	case ToTop, ToBottom, ToLeft, ToRight, ToTopLeft, ToTopRight, ToBottomLeft, ToBottomRight:
		return true
	}
	return false
}

// Audience is a showToUsers token.
type Audience string

const (
	AudienceAll           Audience = "all"
	AudienceAuthenticated Audience = "authenticated"
	AudienceGuest         Audience = "guest"
)

func (a Audience) Valid() bool {
	switch a {
	case AudienceAll, AudienceAuthenticated, AudienceGuest:
		return true
	}
	return false
}

// Style is an opaque bag of presentation properties. Values are primitives;
// keys the renderer does not know pass through untouched.
type Style map[string]any

type Background struct {
	Type              BackgroundType    `json:"type" yaml:"type" validate:"required,backgroundtype"`
	Color             string            `json:"color,omitempty" yaml:"color"`
	GradientColors    []string          `json:"gradientColors,omitempty" yaml:"gradientColors" validate:"omitempty,dive,required"`
	GradientDirection GradientDirection `json:"gradientDirection,omitempty" yaml:"gradientDirection" validate:"omitempty,gradientdir"`
	ImageURL          string            `json:"imageUrl,omitempty" yaml:"imageUrl" validate:"omitempty,url"`
	VideoURL          string            `json:"videoUrl,omitempty" yaml:"videoUrl" validate:"omitempty,url"`
	OverlayOpacity    *float64          `json:"overlayOpacity,omitempty" yaml:"overlayOpacity" validate:"omitempty,min=0,max=1"`
}

type Element struct {
	ID      string      `json:"id,omitempty" yaml:"id"`
	Type    ElementType `json:"type" yaml:"type" validate:"required,elementtype"`
	Content any         `json:"content,omitempty" yaml:"content"`
	Style   Style       `json:"style,omitempty" yaml:"style" validate:"omitempty,style"`
	Href    string      `json:"href,omitempty" yaml:"href" validate:"omitempty,url"`
	Target  string      `json:"target,omitempty" yaml:"target" validate:"omitempty,oneof=_self _blank"`
	Order   int         `json:"order" yaml:"order"`
}

type Animation struct {
	Type     string `json:"type,omitempty" yaml:"type"`
	Duration int    `json:"duration,omitempty" yaml:"duration" validate:"gte=0"`
	Delay    int    `json:"delay,omitempty" yaml:"delay" validate:"gte=0"`
}

// DisplayRules is the optional constraint bundle evaluated per request.
// Every field is optional; an absent field never rejects.
type DisplayRules struct {
	StartDate   *time.Time `json:"startDate,omitempty" yaml:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty" yaml:"endDate"`
	ShowToUsers []Audience `json:"showToUsers,omitempty" yaml:"showToUsers" validate:"omitempty,dive,audience"`
	ShowToRoles []string   `json:"showToRoles,omitempty" yaml:"showToRoles" validate:"omitempty,dive,required"`
	MaxViews    *int64     `json:"maxViews,omitempty" yaml:"maxViews" validate:"omitempty,gte=0"`
	MaxClicks   *int64     `json:"maxClicks,omitempty" yaml:"maxClicks" validate:"omitempty,gte=0"`
}

// Banner is a schedulable promotional content block. Views and Clicks are
// only ever changed by the store's increment operations.
type Banner struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Kind           Kind          `json:"kind"`
	Layout         Layout        `json:"layout"`
	Active         bool          `json:"active"`
	Priority       int           `json:"priority"`
	DisplayOn      []string      `json:"displayOn"`
	Background     Background    `json:"background"`
	Elements       []Element     `json:"elements"`
	ContainerStyle Style         `json:"containerStyle,omitempty"`
	Animation      *Animation    `json:"animation,omitempty"`
	DisplayRules   *DisplayRules `json:"displayRules,omitempty"`
	Views          int64         `json:"views"`
	Clicks         int64         `json:"clicks"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// ShowsOn reports whether page is targeted by DisplayOn.
func (b *Banner) ShowsOn(page string) bool {
	for _, p := range b.DisplayOn {
		if p == PageAll || p == page {
			return true
		}
	}
	return false
}

// Viewer is the requesting party as handed over by the identity provider.
// The zero value is an anonymous guest.
type Viewer struct {
	Authenticated bool   `json:"isAuthenticated"`
	Role          string `json:"role,omitempty"`
}

// Clone returns a deep copy so stored records never alias caller data.
func (b *Banner) Clone() *Banner {
	c := *b
	c.DisplayOn = append([]string(nil), b.DisplayOn...)
	c.Background.GradientColors = append([]string(nil), b.Background.GradientColors...)
	if b.Background.OverlayOpacity != nil {
		v := *b.Background.OverlayOpacity
		c.Background.OverlayOpacity = &v
	}
	if b.Elements != nil {
		c.Elements = make([]Element, len(b.Elements))
		for i, e := range b.Elements {
			e.Style = e.Style.clone()
			c.Elements[i] = e
		}
	}
	c.ContainerStyle = b.ContainerStyle.clone()
	if b.Animation != nil {
		a := *b.Animation
		c.Animation = &a
	}
	if b.DisplayRules != nil {
		r := *b.DisplayRules
		r.ShowToUsers = append([]Audience(nil), b.DisplayRules.ShowToUsers...)
		r.ShowToRoles = append([]string(nil), b.DisplayRules.ShowToRoles...)
		if r.StartDate != nil {
			t := *r.StartDate
			r.StartDate = &t
		}
		if r.EndDate != nil {
			t := *r.EndDate
			r.EndDate = &t
		}
		if r.MaxViews != nil {
			n := *r.MaxViews
			r.MaxViews = &n
		}
		if r.MaxClicks != nil {
			n := *r.MaxClicks
			r.MaxClicks = &n
		}
		c.DisplayRules = &r
	}
	return &c
}

func (s Style) clone() Style {
	if s == nil {
		return nil
	}
	out := make(Style, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
