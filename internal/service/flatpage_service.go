package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blogengine/internal/db"
	"gorm.io/gorm"
)

var (
	ErrFlatPageNotFound = errors.New("flat page not found")
	ErrFlatPageURLTaken = errors.New("flat page url already exists")
)

// FlatPageService provides access to static pages such as About.
type FlatPageService struct {
	db     *gorm.DB
	siteID uint
}

// FlatPageInput represents fields accepted when creating or updating a flat page.
type FlatPageInput struct {
	URL                  string `form:"url" validate:"required,max=100,flatpageurl"`
	Title                string `form:"title" validate:"required,max=200"`
	Content              string `form:"content"`
	RegistrationRequired bool   `form:"registration_required"`
	SiteIDs              []uint `form:"sites" validate:"min=1"`
}

// NewFlatPageService returns a service scoped to siteID for public lookups.
func NewFlatPageService(gdb *gorm.DB, siteID uint) *FlatPageService {
	if siteID == 0 {
		siteID = db.DefaultSiteID
	}
	return &FlatPageService{db: gdb, siteID: siteID}
}

// GetByURL fetches the page published on the current site at url.
func (s *FlatPageService) GetByURL(url string) (*db.FlatPage, error) {
	var page db.FlatPage
	err := s.db.Preload("Sites").
		Joins("JOIN flat_page_sites ON flat_page_sites.flat_page_id = flat_pages.id").
		Where("flat_pages.url = ? AND flat_page_sites.site_id = ?", url, s.siteID).
		First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFlatPageNotFound
		}
		return nil, fmt.Errorf("find flat page %s: %w", url, err)
	}
	return &page, nil
}

// List returns all flat pages ordered by url.
func (s *FlatPageService) List() ([]db.FlatPage, error) {
	var pages []db.FlatPage
	if err := s.db.Preload("Sites").Order("url asc").Find(&pages).Error; err != nil {
		return nil, fmt.Errorf("list flat pages: %w", err)
	}
	return pages, nil
}

// Get fetches a flat page by id.
func (s *FlatPageService) Get(id uint) (*db.FlatPage, error) {
	var page db.FlatPage
	if err := s.db.Preload("Sites").First(&page, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFlatPageNotFound
		}
		return nil, fmt.Errorf("get flat page %d: %w", id, err)
	}
	return &page, nil
}

// Create validates input and stores a new flat page with its sites.
func (s *FlatPageService) Create(input FlatPageInput) (*db.FlatPage, error) {
	input = normalizeFlatPageInput(input)

	page := db.FlatPage{}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		sites, err := s.validate(tx, input, 0)
		if err != nil {
			return err
		}
		applyFlatPageInput(&page, input)
		if err := tx.Omit("Sites").Create(&page).Error; err != nil {
			return err
		}
		return tx.Model(&page).Association("Sites").Replace(sites)
	}); err != nil {
		return nil, wrapWriteErr("create flat page", err)
	}

	return s.Get(page.ID)
}

// Update applies updates to an existing flat page, replacing its sites.
func (s *FlatPageService) Update(id uint, input FlatPageInput) (*db.FlatPage, error) {
	input = normalizeFlatPageInput(input)

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing db.FlatPage
		if err := tx.First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFlatPageNotFound
			}
			return err
		}
		sites, err := s.validate(tx, input, id)
		if err != nil {
			return err
		}
		applyFlatPageInput(&existing, input)
		if err := tx.Omit("Sites").Save(&existing).Error; err != nil {
			return err
		}
		return tx.Model(&existing).Association("Sites").Replace(sites)
	}); err != nil {
		return nil, wrapWriteErr(fmt.Sprintf("update flat page %d", id), err)
	}

	return s.Get(id)
}

// Delete removes a flat page and its site links, returning the removed record.
func (s *FlatPageService) Delete(id uint) (*db.FlatPage, error) {
	page, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(page).Association("Sites").Clear(); err != nil {
			return err
		}
		return tx.Delete(&db.FlatPage{}, id).Error
	}); err != nil {
		return nil, fmt.Errorf("delete flat page %d: %w", id, err)
	}
	return page, nil
}

// Validate checks input without writing.
func (s *FlatPageService) Validate(input FlatPageInput, excludeID uint) error {
	if _, err := s.validate(s.db, normalizeFlatPageInput(input), excludeID); err != nil {
		return wrapWriteErr("validate flat page", err)
	}
	return nil
}

func (s *FlatPageService) validate(tx *gorm.DB, input FlatPageInput, excludeID uint) ([]db.Site, error) {
	verr := validateStruct(input)

	if _, bad := verr.Fields["url"]; !bad {
		switch {
		case !strings.HasPrefix(input.URL, "/"):
			verr.Add("url", "URL is missing a leading slash.")
		case !strings.HasSuffix(input.URL, "/"):
			verr.Add("url", "URL is missing a trailing slash.")
		default:
			query := tx.Model(&db.FlatPage{}).Where("url = ?", input.URL)
			if excludeID != 0 {
				query = query.Where("id <> ?", excludeID)
			}
			var count int64
			if err := query.Count(&count).Error; err != nil {
				return nil, err
			}
			if count > 0 {
				verr.Add("url", "Flat page with this URL already exists.")
				verr.cause = ErrFlatPageURLTaken
			}
		}
	}

	var sites []db.Site
	if len(input.SiteIDs) > 0 {
		if err := tx.Where("id IN ?", input.SiteIDs).Find(&sites).Error; err != nil {
			return nil, err
		}
		if len(sites) != len(input.SiteIDs) {
			verr.Add("sites", "Select a valid choice. That choice is not one of the available choices.")
		}
	}

	if verr.empty() {
		return sites, nil
	}
	return nil, verr
}

func normalizeFlatPageInput(input FlatPageInput) FlatPageInput {
	input.URL = strings.TrimSpace(input.URL)
	input.Title = strings.TrimSpace(input.Title)

	seen := make(map[uint]struct{}, len(input.SiteIDs))
	ids := make([]uint, 0, len(input.SiteIDs))
	for _, id := range input.SiteIDs {
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	input.SiteIDs = ids
	return input
}

func applyFlatPageInput(page *db.FlatPage, input FlatPageInput) {
	page.URL = input.URL
	page.Title = input.Title
	page.Content = input.Content
	page.RegistrationRequired = input.RegistrationRequired
}
