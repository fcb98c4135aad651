package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/diaglab/diaglab/internal/platform/apiclient"
	"github.com/diaglab/diaglab/internal/platform/search"
)

// Service reads the public catalog and, for admins, edits it.
type Service struct {
	api      apiclient.API
	validate *validator.Validate
}

func NewService(api apiclient.API) *Service {
	return &Service{api: api, validate: validator.New()}
}

// -- Tests --

// Tests lists tests, optionally narrowed server-side to one category. The
// "All" sentinel is treated as no category.
func (s *Service) Tests(ctx context.Context, category string) ([]Test, error) {
	var q url.Values
	if !search.IsAll(category) {
		q = url.Values{"category": {category}}
	}
	out := []Test{}
	if err := s.api.Get(ctx, "/tests", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Test finds a single test by id in the listing.
func (s *Service) Test(ctx context.Context, id string) (*Test, error) {
	tests, err := s.Tests(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range tests {
		if tests[i].ID == id {
			return &tests[i], nil
		}
	}
	return nil, fmt.Errorf("test %s: %w", id, ErrNotFound)
}

func (s *Service) CreateTest(ctx context.Context, t *Test) (*Test, error) {
	if err := s.validate.Struct(t); err != nil {
		return nil, fmt.Errorf("invalid test: %w", err)
	}
	var out struct {
		Test Test `json:"test"`
	}
	if err := s.api.Post(ctx, "/tests", t, &out); err != nil {
		return nil, err
	}
	return &out.Test, nil
}

// UpdateTest sends only the given fields.
func (s *Service) UpdateTest(ctx context.Context, id string, fields map[string]any) error {
	return s.update(ctx, "/tests/", id, fields)
}

func (s *Service) DeleteTest(ctx context.Context, id string) error {
	return s.remove(ctx, "/tests/", id)
}

// -- Packages --

func (s *Service) Packages(ctx context.Context) ([]Package, error) {
	out := []Package{}
	if err := s.api.Get(ctx, "/packages", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Package(ctx context.Context, id string) (*Package, error) {
	pkgs, err := s.Packages(ctx)
	if err != nil {
		return nil, err
	}
	for i := range pkgs {
		if pkgs[i].ID == id {
			return &pkgs[i], nil
		}
	}
	return nil, fmt.Errorf("package %s: %w", id, ErrNotFound)
}

func (s *Service) CreatePackage(ctx context.Context, p *Package) (*Package, error) {
	if err := s.validate.Struct(p); err != nil {
		return nil, fmt.Errorf("invalid package: %w", err)
	}
	if p.IncludedTests == nil {
		p.IncludedTests = []string{}
	}
	var out struct {
		Package Package `json:"package"`
	}
	if err := s.api.Post(ctx, "/packages", p, &out); err != nil {
		return nil, err
	}
	return &out.Package, nil
}

func (s *Service) UpdatePackage(ctx context.Context, id string, fields map[string]any) error {
	return s.update(ctx, "/packages/", id, fields)
}

func (s *Service) DeletePackage(ctx context.Context, id string) error {
	return s.remove(ctx, "/packages/", id)
}

// -- Memberships --

func (s *Service) Memberships(ctx context.Context) ([]Membership, error) {
	out := []Membership{}
	if err := s.api.Get(ctx, "/memberships", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) CreateMembership(ctx context.Context, m *Membership) (*Membership, error) {
	if err := s.validate.Struct(m); err != nil {
		return nil, fmt.Errorf("invalid membership: %w", err)
	}
	if m.Benefits == nil {
		m.Benefits = []string{}
	}
	var out struct {
		Membership Membership `json:"membership"`
	}
	if err := s.api.Post(ctx, "/memberships", m, &out); err != nil {
		return nil, err
	}
	return &out.Membership, nil
}

func (s *Service) UpdateMembership(ctx context.Context, id string, fields map[string]any) error {
	return s.update(ctx, "/memberships/", id, fields)
}

func (s *Service) DeleteMembership(ctx context.Context, id string) error {
	return s.remove(ctx, "/memberships/", id)
}

func (s *Service) update(ctx context.Context, prefix, id string, fields map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}
	if len(fields) == 0 {
		return ErrNoFields
	}
	return s.api.Put(ctx, prefix+url.PathEscape(id), fields, nil)
}

func (s *Service) remove(ctx context.Context, prefix, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}
	return s.api.Delete(ctx, prefix+url.PathEscape(id), nil)
}
