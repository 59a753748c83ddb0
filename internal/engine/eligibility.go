package engine

import (
	"fmt"
	"time"

	"storefront-banners/internal/banner"
)

// Evaluate reports whether b may be shown on page to viewer at now. Every
// rule family must pass; an absent rule never rejects. Rule data the write
// path should have refused (legacy rows, hand-edited documents) yields an
// error wrapping banner.ErrEvaluationSkipped instead of a guess.
func Evaluate(b *banner.Banner, page string, viewer banner.Viewer, now time.Time) (bool, error) {
	if !b.Active {
		return false, nil
	}
	if len(b.DisplayOn) == 0 {
		return false, fmt.Errorf("%w: banner %s has no displayOn pages", banner.ErrEvaluationSkipped, b.ID)
	}
	if err := checkRules(b); err != nil {
		return false, err
	}
	if !b.ShowsOn(page) {
		return false, nil
	}

	r := b.DisplayRules
	if r == nil {
		return true, nil
	}
	return inWindow(r, now) &&
		audienceAllows(r, viewer) &&
		roleAllows(r, viewer) &&
		underCaps(r, b), nil
}

// IsEligible is Evaluate with skipped banners treated as ineligible.
func IsEligible(b *banner.Banner, page string, viewer banner.Viewer, now time.Time) bool {
	ok, err := Evaluate(b, page, viewer, now)
	return err == nil && ok
}

func checkRules(b *banner.Banner) error {
	r := b.DisplayRules
	if r == nil {
		return nil
	}
	for _, a := range r.ShowToUsers {
		if !a.Valid() {
			return fmt.Errorf("%w: banner %s has unknown audience %q", banner.ErrEvaluationSkipped, b.ID, a)
		}
	}
	if r.MaxViews != nil && *r.MaxViews < 0 {
		return fmt.Errorf("%w: banner %s has negative maxViews", banner.ErrEvaluationSkipped, b.ID)
	}
	if r.MaxClicks != nil && *r.MaxClicks < 0 {
		return fmt.Errorf("%w: banner %s has negative maxClicks", banner.ErrEvaluationSkipped, b.ID)
	}
	if r.StartDate != nil && r.EndDate != nil && r.StartDate.After(*r.EndDate) {
		return fmt.Errorf("%w: banner %s starts after it ends", banner.ErrEvaluationSkipped, b.ID)
	}
	return nil
}

// inWindow is inclusive on both ends.
func inWindow(r *banner.DisplayRules, now time.Time) bool {
	if r.StartDate != nil && now.Before(*r.StartDate) {
		return false
	}
	if r.EndDate != nil && now.After(*r.EndDate) {
		return false
	}
	return true
}

// audienceAllows checks each token on its own. A list holding both
// "authenticated" and "guest" therefore rejects every viewer.
func audienceAllows(r *banner.DisplayRules, v banner.Viewer) bool {
	for _, a := range r.ShowToUsers {
		switch a {
		case banner.AudienceAuthenticated:
			if !v.Authenticated {
				return false
			}
		case banner.AudienceGuest:
			if v.Authenticated {
				return false
			}
		}
	}
	return true
}

func roleAllows(r *banner.DisplayRules, v banner.Viewer) bool {
	if len(r.ShowToRoles) == 0 {
		return true
	}
	if v.Role == "" {
		return false
	}
	for _, role := range r.ShowToRoles {
		if role == v.Role {
			return true
		}
	}
	return false
}

func underCaps(r *banner.DisplayRules, b *banner.Banner) bool {
	if r.MaxViews != nil && b.Views >= *r.MaxViews {
		return false
	}
	if r.MaxClicks != nil && b.Clicks >= *r.MaxClicks {
		return false
	}
	return true
}
