package banner

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CreateInput is the administrative create payload.
type CreateInput struct {
	Name           string        `json:"name" yaml:"name" validate:"required,max=200"`
	Kind           Kind          `json:"kind" yaml:"kind" validate:"omitempty,bannerkind"`
	Layout         Layout        `json:"layout" yaml:"layout" validate:"omitempty,bannerlayout"`
	Active         *bool         `json:"active" yaml:"active"`
	Priority       int           `json:"priority" yaml:"priority"`
	DisplayOn      []string      `json:"displayOn" yaml:"displayOn" validate:"omitempty,dive,required"`
	Background     *Background   `json:"background" yaml:"background" validate:"required"`
	Elements       []Element     `json:"elements" yaml:"elements" validate:"required,dive"`
	ContainerStyle Style         `json:"containerStyle" yaml:"containerStyle" validate:"omitempty,style"`
	Animation      *Animation    `json:"animation" yaml:"animation"`
	DisplayRules   *DisplayRules `json:"displayRules" yaml:"displayRules"`
}

// Banner builds the record to persist. Id, timestamps and counters are left
// for the store.
func (in CreateInput) Banner(defaultPage string) *Banner {
	b := &Banner{
		Name:           in.Name,
		Kind:           in.Kind,
		Layout:         in.Layout,
		Active:         true,
		Priority:       in.Priority,
		DisplayOn:      append([]string(nil), in.DisplayOn...),
		Elements:       append([]Element(nil), in.Elements...),
		ContainerStyle: in.ContainerStyle,
		Animation:      in.Animation,
		DisplayRules:   in.DisplayRules,
	}
	if in.Active != nil {
		b.Active = *in.Active
	}
	if b.Kind == "" {
		b.Kind = KindPromotional
	}
	if b.Layout == "" {
		b.Layout = LayoutCentered
	}
	if len(b.DisplayOn) == 0 {
		b.DisplayOn = []string{defaultPage}
	}
	if in.Background != nil {
		b.Background = *in.Background
	}
	if b.Elements == nil {
		b.Elements = []Element{}
	}
	return b
}

// Patch is a partial administrative update. Nil fields are left untouched;
// counters cannot be patched. A JSON null reads the same as an absent field,
// so displayRules, animation and containerStyle are cleared by sending an
// empty object instead; Apply stores an empty one as absent.
type Patch struct {
	Name           *string       `json:"name" validate:"omitempty,min=1,max=200"`
	Kind           *Kind         `json:"kind" validate:"omitempty,bannerkind"`
	Layout         *Layout       `json:"layout" validate:"omitempty,bannerlayout"`
	Active         *bool         `json:"active"`
	Priority       *int          `json:"priority"`
	DisplayOn      []string      `json:"displayOn" validate:"omitempty,min=1,dive,required"`
	Background     *Background   `json:"background"`
	Elements       []Element     `json:"elements" validate:"omitempty,dive"`
	ContainerStyle Style         `json:"containerStyle" validate:"omitempty,style"`
	Animation      *Animation    `json:"animation"`
	DisplayRules   *DisplayRules `json:"displayRules"`
}

// Apply merges the patch into b.
func (p Patch) Apply(b *Banner) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Kind != nil {
		b.Kind = *p.Kind
	}
	if p.Layout != nil {
		b.Layout = *p.Layout
	}
	if p.Active != nil {
		b.Active = *p.Active
	}
	if p.Priority != nil {
		b.Priority = *p.Priority
	}
	if p.DisplayOn != nil {
		b.DisplayOn = append([]string(nil), p.DisplayOn...)
	}
	if p.Background != nil {
		b.Background = *p.Background
	}
	if p.Elements != nil {
		b.Elements = append([]Element(nil), p.Elements...)
	}
	if p.ContainerStyle != nil {
		b.ContainerStyle = p.ContainerStyle
		if len(b.ContainerStyle) == 0 {
			b.ContainerStyle = nil
		}
	}
	if p.Animation != nil {
		b.Animation = p.Animation
		if *b.Animation == (Animation{}) {
			b.Animation = nil
		}
	}
	if p.DisplayRules != nil {
		b.DisplayRules = p.DisplayRules
		if b.DisplayRules.empty() {
			b.DisplayRules = nil
		}
	}
}

func (r *DisplayRules) empty() bool {
	return r.StartDate == nil && r.EndDate == nil &&
		len(r.ShowToUsers) == 0 && len(r.ShowToRoles) == 0 &&
		r.MaxViews == nil && r.MaxClicks == nil
}

// Validator enforces the rendering contract at the write boundary.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	enum := func(valid func(string) bool) validator.Func {
		return func(fl validator.FieldLevel) bool { return valid(fl.Field().String()) }
	}
	_ = v.RegisterValidation("bannerkind", enum(func(s string) bool { return Kind(s).Valid() }))
	_ = v.RegisterValidation("bannerlayout", enum(func(s string) bool { return Layout(s).Valid() }))
	_ = v.RegisterValidation("elementtype", enum(func(s string) bool { return ElementType(s).Valid() }))
	_ = v.RegisterValidation("backgroundtype", enum(func(s string) bool { return BackgroundType(s).Valid() }))
	_ = v.RegisterValidation("gradientdir", enum(func(s string) bool { return GradientDirection(s).Valid() }))
	_ = v.RegisterValidation("audience", enum(func(s string) bool { return Audience(s).Valid() }))
	_ = v.RegisterValidation("style", func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(Style)
		return ok && s.valid()
	})
	v.RegisterStructValidation(backgroundRules, Background{})
	v.RegisterStructValidation(windowRules, DisplayRules{})
	return &Validator{v: v}
}

// Create validates a create payload.
func (v *Validator) Create(in CreateInput) error {
	return v.check(in)
}

// Patch validates only the fields present in p.
func (v *Validator) Patch(p Patch) error {
	return v.check(p)
}

func (v *Validator) check(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{Fields: []FieldError{{Field: "", Message: err.Error()}}}
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fieldPath(fe.Namespace()), Message: message(fe)})
	}
	return out
}

func backgroundRules(sl validator.StructLevel) {
	bg := sl.Current().Interface().(Background)
	if bg.Type != BackgroundGradient {
		return
	}
	if len(bg.GradientColors) == 0 {
		sl.ReportError(bg.GradientColors, "gradientColors", "GradientColors", "gradient", "")
	}
	if bg.GradientDirection == "" {
		sl.ReportError(bg.GradientDirection, "gradientDirection", "GradientDirection", "gradient", "")
	}
}

func windowRules(sl validator.StructLevel) {
	r := sl.Current().Interface().(DisplayRules)
	if r.StartDate != nil && r.EndDate != nil && r.StartDate.After(*r.EndDate) {
		sl.ReportError(r.EndDate, "endDate", "EndDate", "window", "")
	}
}

// fieldPath drops the top-level struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gradient":
		return "is required for gradient backgrounds"
	case "window":
		return "must not be before startDate"
	case "bannerkind", "bannerlayout", "elementtype", "backgroundtype", "gradientdir", "audience":
		return fmt.Sprintf("%q is not an allowed value", fmt.Sprint(fe.Value()))
	case "style":
		return "must only hold primitive values"
	case "url":
		return "must be an absolute URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	}
	return "failed " + fe.Tag() + " check"
}

var namedStyleKeys = map[string]struct{}{
	"color": {}, "backgroundColor": {}, "fontSize": {}, "fontWeight": {}, "padding": {},
	"margin": {}, "borderRadius": {}, "textAlign": {}, "width": {}, "height": {},
}

func (s Style) valid() bool {
	for k, val := range s {
		_, named := namedStyleKeys[k]
		switch val.(type) {
		case string, float64, float32, int, int32, int64:
		case bool, nil:
			if named {
				return false
			}
		default:
			return false
		}
	}
	return true
}
