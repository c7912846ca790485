package service

import (
	"testing"

	"github.com/blogengine/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatPageService_CreateAndLookup(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewFlatPageService(gdb, db.DefaultSiteID)

	page, err := svc.Create(FlatPageInput{
		URL:     "/about/",
		Title:   "About me",
		Content: "All about me",
		SiteIDs: []uint{db.DefaultSiteID},
	})
	require.NoError(t, err)

	all, err := svc.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, page.ID, all[0].ID)
	assert.Equal(t, "/about/", all[0].URL)
	assert.Equal(t, "About me", all[0].Title)
	assert.Equal(t, "All about me", all[0].Content)
	assert.Equal(t, "/about/", all[0].AbsoluteURL())
	assert.True(t, all[0].OnSite(db.DefaultSiteID))

	found, err := svc.GetByURL("/about/")
	require.NoError(t, err)
	assert.Equal(t, page.ID, found.ID)

	_, err = svc.GetByURL("/about")
	assert.ErrorIs(t, err, ErrFlatPageNotFound)
}

func TestFlatPageService_GetByURLScopedToSite(t *testing.T) {
	gdb := setupServiceTestDB(t)

	other := db.Site{Domain: "other.example.com", Name: "other"}
	require.NoError(t, gdb.Create(&other).Error)

	svc := NewFlatPageService(gdb, db.DefaultSiteID)
	_, err := svc.Create(FlatPageInput{URL: "/elsewhere/", Title: "Elsewhere", SiteIDs: []uint{other.ID}})
	require.NoError(t, err)

	_, err = svc.GetByURL("/elsewhere/")
	assert.ErrorIs(t, err, ErrFlatPageNotFound)

	found, err := NewFlatPageService(gdb, other.ID).GetByURL("/elsewhere/")
	require.NoError(t, err)
	assert.Equal(t, "Elsewhere", found.Title)
}

func TestFlatPageService_Validation(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewFlatPageService(gdb, db.DefaultSiteID)

	tests := []struct {
		name  string
		input FlatPageInput
		field string
		want  string
	}{
		{
			name:  "missing leading slash",
			input: FlatPageInput{URL: "about/", Title: "About", SiteIDs: []uint{1}},
			field: "url",
			want:  "URL is missing a leading slash.",
		},
		{
			name:  "missing trailing slash",
			input: FlatPageInput{URL: "/about", Title: "About", SiteIDs: []uint{1}},
			field: "url",
			want:  "URL is missing a trailing slash.",
		},
		{
			name:  "illegal characters",
			input: FlatPageInput{URL: "/a b/", Title: "About", SiteIDs: []uint{1}},
			field: "url",
			want:  "This value must contain only letters, numbers, dots, underscores, dashes, slashes or tildes.",
		},
		{
			name:  "no sites",
			input: FlatPageInput{URL: "/about/", Title: "About"},
			field: "sites",
			want:  "This field is required.",
		},
		{
			name:  "unknown site",
			input: FlatPageInput{URL: "/about/", Title: "About", SiteIDs: []uint{42}},
			field: "sites",
			want:  "Select a valid choice. That choice is not one of the available choices.",
		},
		{
			name:  "missing title",
			input: FlatPageInput{URL: "/about/", SiteIDs: []uint{1}},
			field: "title",
			want:  "This field is required.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.want, FieldErrors(err)[tt.field])
		})
	}
}

func TestFlatPageService_UpdateAndDelete(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewFlatPageService(gdb, db.DefaultSiteID)

	first, err := svc.Create(FlatPageInput{URL: "/about/", Title: "About", SiteIDs: []uint{1}})
	require.NoError(t, err)
	second, err := svc.Create(FlatPageInput{URL: "/contact/", Title: "Contact", SiteIDs: []uint{1}})
	require.NoError(t, err)

	_, err = svc.Update(second.ID, FlatPageInput{URL: "/about/", Title: "Contact", SiteIDs: []uint{1}})
	assert.ErrorIs(t, err, ErrFlatPageURLTaken)

	updated, err := svc.Update(first.ID, FlatPageInput{
		URL:                  "/about/",
		Title:                "About us",
		Content:              "<p>Hello</p>",
		RegistrationRequired: true,
		SiteIDs:              []uint{1, 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "About us", updated.Title)
	assert.True(t, updated.RegistrationRequired)
	assert.Len(t, updated.Sites, 1)

	deleted, err := svc.Delete(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "About us", deleted.Title)

	_, err = svc.Get(first.ID)
	assert.ErrorIs(t, err, ErrFlatPageNotFound)

	var links int64
	require.NoError(t, gdb.Table("flat_page_sites").Where("flat_page_id = ?", first.ID).Count(&links).Error)
	assert.Zero(t, links)
}

func TestFlatPageService_Validate(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewFlatPageService(gdb, db.DefaultSiteID)

	err := svc.Validate(FlatPageInput{URL: "about/", Title: "About", SiteIDs: []uint{db.DefaultSiteID}}, 0)
	require.Error(t, err)
	assert.Equal(t, "URL is missing a leading slash.", FieldErrors(err)["url"])

	assert.NoError(t, svc.Validate(FlatPageInput{URL: "/about/", Title: "About", SiteIDs: []uint{db.DefaultSiteID}}, 0))

	pages, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, pages)
}
