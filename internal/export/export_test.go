package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cybercache/internal/core/domain"
)

func fixtureResources() []domain.Resource {
	return []domain.Resource{
		{ID: 1, Title: "MITRE ATT&CK", URL: "https://attack.mitre.org", Category: "Threat Intelligence", Type: domain.ResourceTypeLink, Tags: "framework,ttp"},
		{ID: 2, Title: "SIEM Guide", Category: "Blue Team", Type: domain.ResourceTypeFile, Description: "Deployment guide"},
		{ID: 3, Title: "Stray Note", Type: domain.ResourceTypeFile},
	}
}

func newTestExporter(base string) *Exporter {
	e := New(base)
	e.now = func() time.Time { return time.Unix(1700000000, 0) }
	return e
}

func TestExporter_HTML(t *testing.T) {
	out := newTestExporter("").HTML(fixtureResources())

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE NETSCAPE-Bookmark-file-1>"))
	assert.Contains(t, out, "<TITLE>CyberCache Bookmarks</TITLE>")

	// Categories become folders, name-sorted, with Uncategorized last here.
	blue := strings.Index(out, ">Blue Team</H3>")
	intel := strings.Index(out, ">Threat Intelligence</H3>")
	uncat := strings.Index(out, ">Uncategorized</H3>")
	require.NotEqual(t, -1, blue)
	require.NotEqual(t, -1, intel)
	require.NotEqual(t, -1, uncat)
	assert.Less(t, blue, intel)
	assert.Less(t, intel, uncat)

	// Links keep their URL, files point back at the service.
	assert.Contains(t, out, `HREF="https://attack.mitre.org"`)
	assert.Contains(t, out, `HREF="http://localhost:3000/resource/2"`)

	// Titles are escaped, descriptions become DD lines.
	assert.Contains(t, out, "MITRE ATT&amp;CK")
	assert.Contains(t, out, "<DD>Deployment guide")
}

func TestExporter_ChromeJSON(t *testing.T) {
	out, err := newTestExporter("http://cache.local:8080").ChromeJSON(fixtureResources())
	require.NoError(t, err)

	var parsed struct {
		Roots struct {
			BookmarkBar struct {
				Children []struct {
					Name     string `json:"name"`
					Children []struct {
						Name     string `json:"name"`
						Type     string `json:"type"`
						Children []struct {
							Name string `json:"name"`
							URL  string `json:"url"`
							GUID string `json:"guid"`
						} `json:"children"`
					} `json:"children"`
				} `json:"children"`
			} `json:"bookmark_bar"`
		} `json:"roots"`
		Version int `json:"version"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))

	assert.Equal(t, 1, parsed.Version)
	require.Len(t, parsed.Roots.BookmarkBar.Children, 1)

	top := parsed.Roots.BookmarkBar.Children[0]
	assert.Equal(t, "CyberCache", top.Name)
	require.Len(t, top.Children, 3)
	assert.Equal(t, "Blue Team", top.Children[0].Name)
	assert.Equal(t, "folder", top.Children[0].Type)

	file := top.Children[0].Children[0]
	assert.Equal(t, "SIEM Guide", file.Name)
	assert.Equal(t, "http://cache.local:8080/resource/2", file.URL)
	assert.NotEmpty(t, file.GUID)
}

func TestExporter_FirefoxJSON(t *testing.T) {
	out, err := newTestExporter("").FirefoxJSON(fixtureResources())
	require.NoError(t, err)

	var parsed struct {
		GUID     string `json:"guid"`
		Root     string `json:"root"`
		Type     string `json:"type"`
		Children []struct {
			Title    string `json:"title"`
			Children []struct {
				Title    string `json:"title"`
				Type     string `json:"type"`
				Children []struct {
					Title string `json:"title"`
					URI   string `json:"uri"`
					Type  string `json:"type"`
				} `json:"children"`
			} `json:"children"`
		} `json:"children"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))

	assert.Equal(t, "root________", parsed.GUID)
	assert.Equal(t, "placesRoot", parsed.Root)
	require.Len(t, parsed.Children, 1)
	assert.Equal(t, "CyberCache", parsed.Children[0].Title)
	require.Len(t, parsed.Children[0].Children, 3)

	link := parsed.Children[0].Children[1].Children[0]
	assert.Equal(t, "MITRE ATT&CK", link.Title)
	assert.Equal(t, "https://attack.mitre.org", link.URI)
	assert.Equal(t, "text/x-moz-place", link.Type)
}

func TestExporter_ExportDispatch(t *testing.T) {
	e := newTestExporter("")
	resources := fixtureResources()

	htmlOut, err := e.Export(resources, "html", "chrome")
	require.NoError(t, err)
	assert.Contains(t, htmlOut, "NETSCAPE-Bookmark-file-1")

	chromeOut, err := e.Export(resources, "json", "edge")
	require.NoError(t, err)
	assert.Contains(t, chromeOut, "bookmark_bar")

	firefoxOut, err := e.Export(resources, "json", "firefox")
	require.NoError(t, err)
	assert.Contains(t, firefoxOut, "placesRoot")

	// Unknown formats fall back to HTML.
	fallback, err := e.Export(resources, "", "")
	require.NoError(t, err)
	assert.Contains(t, fallback, "NETSCAPE-Bookmark-file-1")
}

func TestExporter_StableGUIDs(t *testing.T) {
	e := newTestExporter("")
	first, err := e.ChromeJSON(fixtureResources())
	require.NoError(t, err)
	second, err := e.ChromeJSON(fixtureResources())
	require.NoError(t, err)
	assert.Equal(t, first, second, "re-export must be deterministic")
}

func TestExporter_EmptyCatalogue(t *testing.T) {
	e := newTestExporter("")

	out := e.HTML(nil)
	assert.Contains(t, out, "<TITLE>CyberCache Bookmarks</TITLE>")

	chromeOut, err := e.ChromeJSON(nil)
	require.NoError(t, err)
	assert.Contains(t, chromeOut, "bookmark_bar")
}
