package engine

import (
	"context"

	"storefront-banners/internal/banner"
	"storefront-banners/internal/storage"
)

// AdminService is the privileged write path. Payloads are validated before
// the store is touched, so a rejected write persists nothing.
type AdminService struct {
	store       storage.Store
	validator   *banner.Validator
	defaultPage string
}

func NewAdminService(store storage.Store, v *banner.Validator, defaultPage string) *AdminService {
	if defaultPage == "" {
		defaultPage = "home"
	}
	return &AdminService{store: store, validator: v, defaultPage: defaultPage}
}

func (s *AdminService) Create(ctx context.Context, in banner.CreateInput) (*banner.Banner, error) {
	if err := s.validator.Create(in); err != nil {
		return nil, err
	}
	b := in.Banner(s.defaultPage)
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *AdminService) List(ctx context.Context, activeOnly bool) ([]banner.Banner, error) {
	return s.store.List(ctx, activeOnly)
}

func (s *AdminService) Get(ctx context.Context, id string) (*banner.Banner, error) {
	return s.store.Get(ctx, id)
}

// Update merges p into the stored banner. Counters are untouched.
func (s *AdminService) Update(ctx context.Context, id string, p banner.Patch) (*banner.Banner, error) {
	if err := s.validator.Patch(p); err != nil {
		return nil, err
	}
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Apply(b)
	if err := s.store.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *AdminService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
