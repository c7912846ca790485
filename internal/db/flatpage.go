package db

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// DefaultSiteID is the site created on first migration.
const DefaultSiteID uint = 1

// Site identifies one deployment of the blog; flat pages are published per site.
type Site struct {
	ID     uint   `gorm:"primaryKey"`
	Domain string `gorm:"size:100;not null"`
	Name   string `gorm:"size:50;not null"`
}

// FlatPage represents a standalone content page such as About.
type FlatPage struct {
	ID                   uint   `gorm:"primaryKey"`
	URL                  string `gorm:"size:100;uniqueIndex;not null"`
	Title                string `gorm:"size:200;not null"`
	Content              string `gorm:"type:text"`
	RegistrationRequired bool
	Sites                []Site `gorm:"many2many:flat_page_sites;"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// AbsoluteURL returns the public path of the page.
func (p *FlatPage) AbsoluteURL() string {
	return p.URL
}

// OnSite reports whether the page is published on the given site.
func (p *FlatPage) OnSite(siteID uint) bool {
	for _, site := range p.Sites {
		if site.ID == siteID {
			return true
		}
	}
	return false
}

// EnsureDefaultSite 在站点表为空时写入 example.com 作为默认站点。
func EnsureDefaultSite(gdb *gorm.DB) error {
	var site Site
	err := gdb.First(&site, DefaultSiteID).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var count int64
	if err := gdb.Model(&Site{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return gdb.Create(&Site{ID: DefaultSiteID, Domain: "example.com", Name: "example.com"}).Error
}
