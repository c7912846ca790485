package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blogengine/internal/db"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound   = errors.New("post not found")
	ErrSlugTaken      = errors.New("slug already used on this publication date")
	ErrPageOutOfRange = errors.New("page out of range")
)

// PostService wraps post related database operations.
type PostService struct {
	db  *gorm.DB
	loc *time.Location
}

// PostFilter describes pagination for listing posts.
type PostFilter struct {
	Page    int
	PerPage int
}

// PostListResult aggregates paginated list data and counters.
type PostListResult struct {
	Posts      []db.Post
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// HasPrevious reports whether a page precedes this one.
func (r *PostListResult) HasPrevious() bool {
	return r.Page > 1
}

// HasNext reports whether a page follows this one.
func (r *PostListResult) HasNext() bool {
	return r.Page < r.TotalPages
}

// PostInput represents fields accepted when creating or updating a post.
type PostInput struct {
	Title    string    `form:"title" validate:"required,max=200"`
	Text     string    `form:"text" validate:"required"`
	Slug     string    `form:"slug" validate:"required,max=50,slug"`
	PubDate  time.Time `form:"pub_date" validate:"required"`
	AuthorID *uint     `form:"author"`
}

// NewPostService creates a PostService instance. Calendar lookups use loc (UTC when nil).
func NewPostService(gdb *gorm.DB, loc *time.Location) *PostService {
	if loc == nil {
		loc = time.UTC
	}
	return &PostService{db: gdb, loc: loc}
}

// Location returns the time zone used for date based lookups.
func (s *PostService) Location() *time.Location {
	return s.loc
}

// List returns one page of posts, newest publication first.
// Page 1 is always valid; any other page beyond the last one yields ErrPageOutOfRange.
func (s *PostService) List(filter PostFilter) (*PostListResult, error) {
	result := &PostListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.PerPage <= 0 {
		result.PerPage = 5
	}
	if result.Page < 1 {
		return nil, ErrPageOutOfRange
	}

	if err := s.db.Model(&db.Post{}).Count(&result.Total).Error; err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	if result.Total == 0 {
		result.TotalPages = 1
	} else {
		result.TotalPages = int((result.Total + int64(result.PerPage) - 1) / int64(result.PerPage))
	}
	if result.Page > result.TotalPages {
		return nil, ErrPageOutOfRange
	}

	offset := (result.Page - 1) * result.PerPage

	var posts []db.Post
	if err := s.db.Preload("Author").
		Order("pub_date desc, id desc").
		Limit(result.PerPage).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	result.Posts = posts
	return result, nil
}

// LastPage returns the number of the final page for perPage sized pages.
func (s *PostService) LastPage(perPage int) (int, error) {
	if perPage <= 0 {
		perPage = 5
	}
	total, err := s.Count()
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 1, nil
	}
	return int((total + int64(perPage) - 1) / int64(perPage)), nil
}

// Count returns the number of stored posts.
func (s *PostService) Count() (int64, error) {
	var count int64
	if err := s.db.Model(&db.Post{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

// Get fetches a post by id with the author preloaded.
func (s *PostService) Get(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.Preload("Author").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return &post, nil
}

// GetByDateSlug finds the single post published on the given calendar day with slug.
// Zero or several matches both yield ErrPostNotFound.
func (s *PostService) GetByDateSlug(year, month, day int, slug string) (*db.Post, error) {
	start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, s.loc)
	// time.Date 会规范化越界日期（如 2 月 30 日），此时视为不存在
	if start.Year() != year || int(start.Month()) != month || start.Day() != day {
		return nil, ErrPostNotFound
	}
	end := start.AddDate(0, 0, 1)

	var posts []db.Post
	if err := s.db.Preload("Author").
		Where("slug = ? AND pub_date >= ? AND pub_date < ?", slug, start.UTC(), end.UTC()).
		Limit(2).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("find post %s: %w", slug, err)
	}
	if len(posts) != 1 {
		return nil, ErrPostNotFound
	}
	return &posts[0], nil
}

// Create validates input and persists a new post.
func (s *PostService) Create(input PostInput) (*db.Post, error) {
	input = normalizePostInput(input)

	post := db.Post{}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.validate(tx, input, 0); err != nil {
			return err
		}
		applyPostInput(&post, input)
		return tx.Omit("Author").Create(&post).Error
	}); err != nil {
		return nil, wrapWriteErr("create post", err)
	}

	return s.Get(post.ID)
}

// Update applies updates to an existing post.
func (s *PostService) Update(id uint, input PostInput) (*db.Post, error) {
	input = normalizePostInput(input)

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing db.Post
		if err := tx.First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}
		if err := s.validate(tx, input, id); err != nil {
			return err
		}
		applyPostInput(&existing, input)
		return tx.Omit("Author").Save(&existing).Error
	}); err != nil {
		return nil, wrapWriteErr(fmt.Sprintf("update post %d", id), err)
	}

	return s.Get(id)
}

// Validate checks input without writing. excludeID skips that post in the slug check.
func (s *PostService) Validate(input PostInput, excludeID uint) error {
	if err := s.validate(s.db, normalizePostInput(input), excludeID); err != nil {
		return wrapWriteErr("validate post", err)
	}
	return nil
}

// Delete removes a post by id and returns the removed record.
func (s *PostService) Delete(id uint) (*db.Post, error) {
	post, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Delete(&db.Post{}, id).Error; err != nil {
		return nil, fmt.Errorf("delete post %d: %w", id, err)
	}
	return post, nil
}

func (s *PostService) validate(tx *gorm.DB, input PostInput, excludeID uint) error {
	verr := validateStruct(input)

	if input.AuthorID != nil {
		var count int64
		if err := tx.Model(&db.User{}).Where("id = ?", *input.AuthorID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			verr.Add("author", "Select a valid choice. That choice is not one of the available choices.")
		}
	}

	if _, bad := verr.Fields["slug"]; !bad && !input.PubDate.IsZero() {
		taken, err := s.slugTaken(tx, input.Slug, input.PubDate, excludeID)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("slug", "Post with this Slug and Pub date already exists.")
			verr.cause = ErrSlugTaken
		}
	}

	if verr.empty() {
		return nil
	}
	return verr
}

func (s *PostService) slugTaken(tx *gorm.DB, slug string, pubDate time.Time, excludeID uint) (bool, error) {
	local := pubDate.In(s.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, 1)

	query := tx.Model(&db.Post{}).
		Where("slug = ? AND pub_date >= ? AND pub_date < ?", slug, start.UTC(), end.UTC())
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func normalizePostInput(input PostInput) PostInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Slug = strings.TrimSpace(input.Slug)
	if input.AuthorID != nil && *input.AuthorID == 0 {
		input.AuthorID = nil
	}
	return input
}

func applyPostInput(post *db.Post, input PostInput) {
	post.Title = input.Title
	post.Text = input.Text
	post.Slug = input.Slug
	post.PubDate = input.PubDate
	post.AuthorID = input.AuthorID
	post.Author = nil
}

// wrapWriteErr keeps sentinel and validation errors recognisable while adding context to storage errors.
func wrapWriteErr(action string, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return err
	case errors.Is(err, ErrPostNotFound), errors.Is(err, ErrSlugTaken),
		errors.Is(err, ErrFlatPageNotFound), errors.Is(err, ErrFlatPageURLTaken):
		return err
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}
