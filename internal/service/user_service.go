package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blogengine/internal/db"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrSiteNotFound       = errors.New("site not found")
)

// UserService wraps account lookups used by the admin.
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a UserService instance.
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// Authenticate returns the staff account matching username and password.
func (s *UserService) Authenticate(username, password string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsStaff || !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get fetches a user by id.
func (s *UserService) Get(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &user, nil
}

// List returns all accounts ordered by username.
func (s *UserService) List() ([]db.User, error) {
	var users []db.User
	if err := s.db.Order("username asc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SiteService exposes the configured sites.
type SiteService struct {
	db     *gorm.DB
	siteID uint
}

// NewSiteService creates a SiteService whose current site is siteID.
func NewSiteService(gdb *gorm.DB, siteID uint) *SiteService {
	if siteID == 0 {
		siteID = db.DefaultSiteID
	}
	return &SiteService{db: gdb, siteID: siteID}
}

// Current returns the site this process serves.
func (s *SiteService) Current() (*db.Site, error) {
	var site db.Site
	if err := s.db.First(&site, s.siteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, fmt.Errorf("get site %d: %w", s.siteID, err)
	}
	return &site, nil
}

// List returns all sites ordered by domain.
func (s *SiteService) List() ([]db.Site, error) {
	var sites []db.Site
	if err := s.db.Order("domain asc, id asc").Find(&sites).Error; err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	return sites, nil
}
