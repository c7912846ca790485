package db

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Post 定义了文章模型
type Post struct {
	ID        uint      `gorm:"primaryKey"`
	Title     string    `gorm:"size:200;not null"`
	Text      string    `gorm:"type:text;not null"`
	Slug      string    `gorm:"size:50;index;not null"`
	PubDate   time.Time `gorm:"index;not null"`
	AuthorID  *uint
	Author    *User `gorm:"constraint:OnDelete:SET NULL;"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeSave keeps pub_date in UTC so day-range lookups compare consistently.
func (p *Post) BeforeSave(*gorm.DB) error {
	p.PubDate = p.PubDate.UTC()
	return nil
}

// AbsoluteURL returns the detail path of the post, with the date taken in loc.
func (p *Post) AbsoluteURL(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := p.PubDate.In(loc)
	return fmt.Sprintf("/%d/%d/%d/%s/", local.Year(), int(local.Month()), local.Day(), p.Slug)
}

// AuthorName 返回作者用户名，未设置作者时为空字符串。
func (p *Post) AuthorName() string {
	if p.Author == nil {
		return ""
	}
	return p.Author.Username
}
