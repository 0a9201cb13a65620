package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceType_Valid(t *testing.T) {
	tests := []struct {
		name     string
		rt       ResourceType
		expected bool
	}{
		{"file", ResourceTypeFile, true},
		{"link", ResourceTypeLink, true},
		{"empty", ResourceType(""), false},
		{"unknown", ResourceType("folder"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.rt.Valid())
		})
	}
}

func TestResource_TagList(t *testing.T) {
	tests := []struct {
		name     string
		tags     string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "tool", []string{"tool"}},
		{"comma joined", "tool, guide, linux", []string{"tool", "guide", "linux"}},
		{"preserves order", "z-tag, a-tag", []string{"z-tag", "a-tag"}},
		{"skips blank entries", "tool,, guide", []string{"tool", "guide"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Resource{Tags: tt.tags}
			assert.Equal(t, tt.expected, r.TagList())
		})
	}
}

func TestResourceUpdate_Empty(t *testing.T) {
	title := "new title"

	assert.True(t, ResourceUpdate{}.Empty())
	assert.False(t, ResourceUpdate{Title: &title}.Empty())
}

func TestDefaultCategories(t *testing.T) {
	assert.Len(t, DefaultCategories, 11)

	slugs := make(map[string]bool)
	for _, c := range DefaultCategories {
		assert.NotEmpty(t, c.Name)
		assert.NotEmpty(t, c.Slug)
		assert.False(t, slugs[c.Slug], "duplicate slug %q", c.Slug)
		slugs[c.Slug] = true
	}
}
