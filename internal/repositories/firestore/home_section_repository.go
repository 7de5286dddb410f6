package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/quickfynd/api/internal/domain"
	pfirestore "github.com/quickfynd/api/internal/platform/firestore"
)

const homeSectionCollection = "homeSections"

type homeSectionDocument struct {
	Section    string    `firestore:"section,omitempty"`
	Title      string    `firestore:"title"`
	Subtitle   string    `firestore:"subtitle,omitempty"`
	Category   string    `firestore:"category,omitempty"`
	Tag        string    `firestore:"tag,omitempty"`
	ProductIDs []string  `firestore:"productIds,omitempty"`
	GridSize   int       `firestore:"gridSize"`
	Layout     string    `firestore:"layout,omitempty"`
	CTAText    string    `firestore:"ctaText,omitempty"`
	CTALink    string    `firestore:"ctaLink,omitempty"`
	Visible    bool      `firestore:"visible"`
	SortOrder  int       `firestore:"sortOrder"`
	CreatedAt  time.Time `firestore:"createdAt"`
	UpdatedAt  time.Time `firestore:"updatedAt"`
}

// HomeSectionRepository stores merchant-curated storefront sections.
type HomeSectionRepository struct {
	base *pfirestore.BaseRepository[homeSectionDocument]
}

// NewHomeSectionRepository constructs a Firestore-backed home section repository.
func NewHomeSectionRepository(provider *pfirestore.Provider) (*HomeSectionRepository, error) {
	if provider == nil {
		return nil, errors.New("home section repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[homeSectionDocument](provider, homeSectionCollection, nil, nil)
	return &HomeSectionRepository{base: base}, nil
}

// Insert creates the section document.
func (r *HomeSectionRepository) Insert(ctx context.Context, section domain.HomeSection) (domain.HomeSection, error) {
	return r.save(ctx, section)
}

// Update overwrites the section document.
func (r *HomeSectionRepository) Update(ctx context.Context, section domain.HomeSection) (domain.HomeSection, error) {
	return r.save(ctx, section)
}

func (r *HomeSectionRepository) save(ctx context.Context, section domain.HomeSection) (domain.HomeSection, error) {
	if r == nil || r.base == nil {
		return domain.HomeSection{}, errors.New("home section repository not initialised")
	}
	if strings.TrimSpace(section.ID) == "" {
		return domain.HomeSection{}, errors.New("home section repository: section id is required")
	}
	if _, err := r.base.Set(ctx, section.ID, fromDomainSection(section)); err != nil {
		return domain.HomeSection{}, err
	}
	return section, nil
}

// Delete removes the section document.
func (r *HomeSectionRepository) Delete(ctx context.Context, sectionID string) error {
	if r == nil || r.base == nil {
		return errors.New("home section repository not initialised")
	}

	// Read first so a missing section surfaces as not-found rather than a
	// silent no-op delete.
	if _, err := r.base.Get(ctx, sectionID); err != nil {
		return err
	}
	return r.base.Delete(ctx, sectionID)
}

// FindByID loads one section.
func (r *HomeSectionRepository) FindByID(ctx context.Context, sectionID string) (domain.HomeSection, error) {
	if r == nil || r.base == nil {
		return domain.HomeSection{}, errors.New("home section repository not initialised")
	}
	doc, err := r.base.Get(ctx, sectionID)
	if err != nil {
		return domain.HomeSection{}, err
	}
	return toDomainSection(doc.ID, doc.Data), nil
}

// List returns sections ordered by sort order ascending.
func (r *HomeSectionRepository) List(ctx context.Context, visibleOnly bool) ([]domain.HomeSection, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("home section repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if visibleOnly {
			q = q.Where("visible", "==", true)
		}
		return q.OrderBy("sortOrder", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	sections := make([]domain.HomeSection, 0, len(docs))
	for _, doc := range docs {
		sections = append(sections, toDomainSection(doc.ID, doc.Data))
	}
	return sections, nil
}

func fromDomainSection(section domain.HomeSection) homeSectionDocument {
	return homeSectionDocument{
		Section:    section.Section,
		Title:      section.Title,
		Subtitle:   section.Subtitle,
		Category:   section.Category,
		Tag:        section.Tag,
		ProductIDs: section.ProductIDs,
		GridSize:   section.GridSize,
		Layout:     section.Layout,
		CTAText:    section.CTAText,
		CTALink:    section.CTALink,
		Visible:    section.Visible,
		SortOrder:  section.SortOrder,
		CreatedAt:  section.CreatedAt,
		UpdatedAt:  section.UpdatedAt,
	}
}

func toDomainSection(id string, doc homeSectionDocument) domain.HomeSection {
	return domain.HomeSection{
		ID:         id,
		Section:    doc.Section,
		Title:      doc.Title,
		Subtitle:   doc.Subtitle,
		Category:   doc.Category,
		Tag:        doc.Tag,
		ProductIDs: doc.ProductIDs,
		GridSize:   doc.GridSize,
		Layout:     doc.Layout,
		CTAText:    doc.CTAText,
		CTALink:    doc.CTALink,
		Visible:    doc.Visible,
		SortOrder:  doc.SortOrder,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}
