package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	"github.com/quickfynd/api/internal/repositories"
)

var (
	// ErrContentInvalidInput indicates a malformed section command.
	ErrContentInvalidInput = errors.New("content service: invalid input")
	// ErrContentSectionNotFound indicates the section does not exist.
	ErrContentSectionNotFound = errors.New("content service: section not found")
)

// ContentServiceDeps bundles constructor inputs for the content service.
type ContentServiceDeps struct {
	Sections    repositories.HomeSectionRepository
	Clock       func() time.Time
	IDGenerator func() string
}

type contentService struct {
	sections repositories.HomeSectionRepository
	clock    func() time.Time
	newID    func() string
	policy   *bluemonday.Policy
}

var _ ContentService = (*contentService)(nil)

// NewContentService constructs the content service with the supplied dependencies.
func NewContentService(deps ContentServiceDeps) (ContentService, error) {
	if deps.Sections == nil {
		return nil, errors.New("content service: section repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}
	return &contentService{
		sections: deps.Sections,
		clock:    func() time.Time { return clock().UTC() },
		newID:    idGen,
		policy:   newSectionTextPolicy(),
	}, nil
}

func (s *contentService) ListSections(ctx context.Context, visibleOnly bool) ([]HomeSection, error) {
	return s.sections.List(ctx, visibleOnly)
}

func (s *contentService) CreateSection(ctx context.Context, cmd SectionCommand) (HomeSection, error) {
	section, err := s.buildSection(cmd)
	if err != nil {
		return HomeSection{}, err
	}
	now := s.clock()
	section.ID = s.newID()
	section.CreatedAt = now
	section.UpdatedAt = now
	if cmd.Visible != nil {
		section.Visible = *cmd.Visible
	} else {
		section.Visible = true
	}
	return s.sections.Insert(ctx, section)
}

func (s *contentService) UpdateSection(ctx context.Context, cmd SectionCommand) (HomeSection, error) {
	sectionID := strings.TrimSpace(cmd.SectionID)
	if sectionID == "" {
		return HomeSection{}, fmt.Errorf("%w: section id is required", ErrContentInvalidInput)
	}
	existing, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if isRepoNotFound(err) {
			return HomeSection{}, fmt.Errorf("%w: %q", ErrContentSectionNotFound, sectionID)
		}
		return HomeSection{}, err
	}

	updated, err := s.buildSection(cmd)
	if err != nil {
		return HomeSection{}, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.clock()
	if cmd.Visible != nil {
		updated.Visible = *cmd.Visible
	} else {
		updated.Visible = existing.Visible
	}
	return s.sections.Update(ctx, updated)
}

func (s *contentService) DeleteSection(ctx context.Context, sectionID string) error {
	sectionID = strings.TrimSpace(sectionID)
	if sectionID == "" {
		return fmt.Errorf("%w: section id is required", ErrContentInvalidInput)
	}
	if err := s.sections.Delete(ctx, sectionID); err != nil {
		if isRepoNotFound(err) {
			return fmt.Errorf("%w: %q", ErrContentSectionNotFound, sectionID)
		}
		return err
	}
	return nil
}

func (s *contentService) buildSection(cmd SectionCommand) (HomeSection, error) {
	title := s.sanitize(cmd.Title)
	if title == "" {
		return HomeSection{}, fmt.Errorf("%w: title is required", ErrContentInvalidInput)
	}
	if cmd.GridSize < 0 {
		return HomeSection{}, fmt.Errorf("%w: grid size cannot be negative", ErrContentInvalidInput)
	}

	productIDs := make([]string, 0, len(cmd.ProductIDs))
	for _, id := range cmd.ProductIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			productIDs = append(productIDs, trimmed)
		}
	}

	return HomeSection{
		Section:    strings.TrimSpace(cmd.Section),
		Title:      title,
		Subtitle:   s.sanitize(cmd.Subtitle),
		Category:   strings.TrimSpace(cmd.Category),
		Tag:        strings.TrimSpace(cmd.Tag),
		ProductIDs: productIDs,
		GridSize:   cmd.GridSize,
		Layout:     strings.TrimSpace(cmd.Layout),
		CTAText:    s.sanitize(cmd.CTAText),
		CTALink:    strings.TrimSpace(cmd.CTALink),
		SortOrder:  cmd.SortOrder,
	}, nil
}

func (s *contentService) sanitize(value string) string {
	return strings.TrimSpace(s.policy.Sanitize(value))
}

// newSectionTextPolicy allows basic inline markup in merchant-entered copy
// while stripping scripts and event handlers.
func newSectionTextPolicy() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("b", "strong", "i", "em", "br")
	return policy
}
