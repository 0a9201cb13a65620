package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cybercache/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func fileResource(title, hash string) *domain.Resource {
	return &domain.Resource{
		Title:    title,
		Type:     domain.ResourceTypeFile,
		FileData: []byte("payload of " + title),
		FileType: "text/plain",
		FileSize: int64(len("payload of " + title)),
		FileHash: hash,
		Category: "Blue Team",
		Tags:     "defensive,siem",
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	res := fileResource("SIEM Deployment Guide", "aaaa1111")
	res.Description = "How to deploy a SIEM"

	id, err := store.Create(ctx, res)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))
	assert.Equal(t, id, res.ID)

	got, err := store.Get(ctx, id, false)
	require.NoError(t, err)
	assert.Equal(t, "SIEM Deployment Guide", got.Title)
	assert.Equal(t, "How to deploy a SIEM", got.Description)
	assert.Equal(t, "Blue Team", got.Category)
	assert.Equal(t, domain.ResourceTypeFile, got.Type)
	assert.Equal(t, "aaaa1111", got.FileHash)
	assert.Empty(t, got.FileData, "metadata query must not carry the payload")
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)

	withData, err := store.Get(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload of SIEM Deployment Guide"), withData.FileData)
}

func TestStore_GetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), 9999, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DuplicateHash(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, fileResource("First", "samehash"))
	require.NoError(t, err)

	_, err = store.Create(ctx, fileResource("Second", "samehash"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestStore_MultipleLinksWithoutHash(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Links carry no hash; the UNIQUE constraint must not collapse them.
	for _, title := range []string{"MITRE ATT&CK", "NIST CSF"} {
		_, err := store.Create(ctx, &domain.Resource{
			Title: title,
			Type:  domain.ResourceTypeLink,
			URL:   "https://example.com/" + title,
		})
		require.NoError(t, err)
	}

	resources, err := store.List(ctx, domain.ResourceFilter{})
	require.NoError(t, err)
	assert.Len(t, resources, 2)
}

func TestStore_GetFileData(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	res := fileResource("Payload Test", "hash-payload")
	id, err := store.Create(ctx, res)
	require.NoError(t, err)

	payload, err := store.GetFileData(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload of Payload Test"), payload.Data)
	assert.Equal(t, "text/plain", payload.FileType)
	assert.Equal(t, "Payload Test", payload.Title)

	_, err = store.GetFileData(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_GetFileDataByPath(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	res := fileResource("Watched Report", "hash-path")
	res.FilePath = "/watched/int/apt_report.pdf"
	_, err := store.Create(ctx, res)
	require.NoError(t, err)

	// Exact stored path.
	payload, err := store.GetFileDataByPath(ctx, "/watched/int/apt_report.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload of Watched Report"), payload.Data)
	assert.Equal(t, "Watched Report", payload.Title)

	// Bare filename resolves against the trailing path segment.
	payload, err = store.GetFileDataByPath(ctx, "apt_report.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload of Watched Report"), payload.Data)

	_, err = store.GetFileDataByPath(ctx, "no_such_file.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ListFiltersAndOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := fileResource("Older", "h1")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	_, err := store.Create(ctx, older)
	require.NoError(t, err)

	newer := fileResource("Newer", "h2")
	newer.Category = "Red Team"
	_, err = store.Create(ctx, newer)
	require.NoError(t, err)

	_, err = store.Create(ctx, &domain.Resource{
		Title:    "A Link",
		Type:     domain.ResourceTypeLink,
		URL:      "https://example.com",
		Category: "Red Team",
	})
	require.NoError(t, err)

	all, err := store.List(ctx, domain.ResourceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Older", all[2].Title, "newest first")

	red, err := store.List(ctx, domain.ResourceFilter{Category: "Red Team"})
	require.NoError(t, err)
	assert.Len(t, red, 2)

	links, err := store.List(ctx, domain.ResourceFilter{Type: "link"})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "A Link", links[0].Title)

	paged, err := store.List(ctx, domain.ResourceFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, paged, 1)
}

func TestStore_Search(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	res := fileResource("Phishing Response Playbook", "h-search")
	res.Description = "Steps for handling phishing incidents"
	id, err := store.Create(ctx, res)
	require.NoError(t, err)

	other := fileResource("Nmap Cheat Sheet", "h-other")
	other.Category = "Red Team"
	other.Tags = "offensive,scanning"
	_, err = store.Create(ctx, other)
	require.NoError(t, err)

	t.Run("matches title terms", func(t *testing.T) {
		results, err := store.Search(ctx, "phishing", "", 20)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, id, results[0].ID)
	})

	t.Run("stemming matches word variants", func(t *testing.T) {
		results, err := store.Search(ctx, "incident", "", 20)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("category narrows results", func(t *testing.T) {
		results, err := store.Search(ctx, "phishing", "Red Team", 20)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("index follows updates", func(t *testing.T) {
		title := "Ransomware Playbook"
		require.NoError(t, store.Update(ctx, id, domain.ResourceUpdate{Title: &title}))

		results, err := store.Search(ctx, "ransomware", "", 20)
		require.NoError(t, err)
		assert.Len(t, results, 1)

		results, err = store.Search(ctx, "phishing", "", 20)
		require.NoError(t, err)
		assert.Empty(t, results, "old title must leave the index")
	})

	t.Run("index follows deletes", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, id))

		results, err := store.Search(ctx, "ransomware", "", 20)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestStore_Update(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	res := fileResource("Before", "h-update")
	res.CreatedAt = time.Now().UTC().Add(-time.Minute)
	id, err := store.Create(ctx, res)
	require.NoError(t, err)

	title := "After"
	tags := "updated,tags"
	err = store.Update(ctx, id, domain.ResourceUpdate{Title: &title, Tags: &tags})
	require.NoError(t, err)

	got, err := store.Get(ctx, id, false)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Title)
	assert.Equal(t, "updated,tags", got.Tags)
	assert.Equal(t, "Blue Team", got.Category, "unset fields stay untouched")
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestStore_UpdateErrors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	title := "x"
	err := store.Update(ctx, 9999, domain.ResourceUpdate{Title: &title})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	id, err := store.Create(ctx, fileResource("Empty Update", "h-empty"))
	require.NoError(t, err)
	err = store.Update(ctx, id, domain.ResourceUpdate{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, fileResource("To Delete", "h-delete"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))

	_, err = store.Get(ctx, id, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, id), domain.ErrNotFound)
}

func TestStore_Stats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, fileResource("One", "h-s1"))
	require.NoError(t, err)
	_, err = store.Create(ctx, fileResource("Two", "h-s2"))
	require.NoError(t, err)
	_, err = store.Create(ctx, &domain.Resource{
		Title:    "Link",
		Type:     domain.ResourceTypeLink,
		URL:      "https://example.com",
		Category: "Red Team",
	})
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByCategory["Blue Team"])
	assert.Equal(t, 1, stats.ByCategory["Red Team"])
	assert.Equal(t, 2, stats.ByType["file"])
	assert.Equal(t, 1, stats.ByType["link"])
}

func TestStore_SeededCategories(t *testing.T) {
	store := newTestStore(t)

	categories, err := store.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, len(domain.DefaultCategories))

	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "Blue Team")
	assert.Contains(t, names, "Threat Intelligence")
	assert.IsIncreasing(t, names)
}

func TestStore_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)

	_, err = store.Create(context.Background(), fileResource("Survivor", "h-mig"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening the same directory must not re-run applied migrations.
	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	resources, err := reopened.List(context.Background(), domain.ResourceFilter{})
	require.NoError(t, err)
	assert.Len(t, resources, 1)
}
