// Package export renders the catalogue as browser bookmark files: the
// Netscape HTML format every browser imports, plus the Chrome and Firefox
// native JSON formats. Resources are grouped into per-category folders;
// file resources link back to the service, links use their own URL.
package export

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/cybercache/internal/core/domain"
)

// DefaultFileBaseURL is where file resources resolve when no base is
// configured.
const DefaultFileBaseURL = "http://localhost:3000"

// Exporter renders resource lists as bookmark files.
type Exporter struct {
	fileBaseURL string
	now         func() time.Time
}

// New creates an exporter. fileBaseURL is the service address used for
// file-resource links; empty selects the default.
func New(fileBaseURL string) *Exporter {
	if fileBaseURL == "" {
		fileBaseURL = DefaultFileBaseURL
	}
	return &Exporter{
		fileBaseURL: strings.TrimRight(fileBaseURL, "/"),
		now:         time.Now,
	}
}

// HTML renders the Netscape Bookmark File Format, importable by Chrome,
// Firefox, Safari and Edge.
func (e *Exporter) HTML(resources []domain.Resource) string {
	timestamp := e.now().Unix()
	groups := groupByCategory(resources)

	var b strings.Builder
	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<!-- This is an automatically generated file.\n")
	b.WriteString("     It will be read and overwritten.\n")
	b.WriteString("     DO NOT EDIT! -->\n")
	b.WriteString(`<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">` + "\n")
	b.WriteString("<TITLE>CyberCache Bookmarks</TITLE>\n")
	b.WriteString("<H1>CyberCache Bookmarks</H1>\n")
	b.WriteString("<DL><p>\n")
	fmt.Fprintf(&b, "    <DT><H3 ADD_DATE=%q LAST_MODIFIED=%q PERSONAL_TOOLBAR_FOLDER=\"true\">CyberCache</H3>\n",
		strconv.FormatInt(timestamp, 10), strconv.FormatInt(timestamp, 10))
	b.WriteString("    <DL><p>\n")

	for _, group := range groups {
		fmt.Fprintf(&b, "        <DT><H3 ADD_DATE=%q LAST_MODIFIED=%q>%s</H3>\n",
			strconv.FormatInt(timestamp, 10), strconv.FormatInt(timestamp, 10),
			html.EscapeString(group.category))
		b.WriteString("        <DL><p>\n")

		for _, res := range group.resources {
			url := e.resourceURL(&res)
			if url == "" {
				continue
			}
			fmt.Fprintf(&b, "            <DT><A HREF=%q ADD_DATE=%q TAGS=%q>%s</A>\n",
				html.EscapeString(url), strconv.FormatInt(timestamp, 10),
				html.EscapeString(res.Tags), html.EscapeString(res.Title))
			if res.Description != "" {
				fmt.Fprintf(&b, "            <DD>%s\n", html.EscapeString(res.Description))
			}
		}

		b.WriteString("        </DL><p>\n")
	}

	b.WriteString("    </DL><p>\n")
	b.WriteString("</DL><p>\n")
	return b.String()
}

// chromeNode is one entry in Chrome's bookmark tree. Children is non-nil
// only for folders.
type chromeNode struct {
	Children     []chromeNode `json:"children,omitempty"`
	DateAdded    string       `json:"date_added"`
	DateModified string       `json:"date_modified,omitempty"`
	GUID         string       `json:"guid"`
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	URL          string       `json:"url,omitempty"`
}

type chromeRoot struct {
	Checksum string                `json:"checksum"`
	Roots    map[string]chromeNode `json:"roots"`
	Version  int                   `json:"version"`
}

// ChromeJSON renders Chrome's native bookmark JSON; Edge and Safari accept
// the same structure.
func (e *Exporter) ChromeJSON(resources []domain.Resource) (string, error) {
	// Chrome timestamps are microseconds.
	timestamp := strconv.FormatInt(e.now().UnixMicro(), 10)
	groups := groupByCategory(resources)

	var folders []chromeNode
	for _, group := range groups {
		var children []chromeNode
		for _, res := range group.resources {
			url := e.resourceURL(&res)
			if url == "" {
				continue
			}
			children = append(children, chromeNode{
				DateAdded: timestamp,
				GUID:      guidFor(strconv.FormatInt(res.ID, 10)),
				ID:        strconv.FormatInt(res.ID, 10),
				Name:      res.Title,
				Type:      "url",
				URL:       url,
			})
		}
		if len(children) == 0 {
			continue
		}
		folders = append(folders, chromeNode{
			Children:     children,
			DateAdded:    timestamp,
			DateModified: timestamp,
			GUID:         guidFor("folder_" + group.category),
			ID:           strconv.Itoa(len(folders) + 1000),
			Name:         group.category,
			Type:         "folder",
		})
	}

	root := chromeRoot{
		Roots: map[string]chromeNode{
			"bookmark_bar": {
				Children: []chromeNode{{
					Children:     folders,
					DateAdded:    timestamp,
					DateModified: timestamp,
					GUID:         guidFor("cybercache"),
					ID:           "1",
					Name:         "CyberCache",
					Type:         "folder",
				}},
				DateAdded:    timestamp,
				DateModified: timestamp,
				GUID:         "bookmark_bar",
				ID:           "1",
				Name:         "Bookmarks Bar",
				Type:         "folder",
			},
			"other": {
				Children:     []chromeNode{},
				DateAdded:    timestamp,
				DateModified: timestamp,
				GUID:         "other_bookmarks",
				ID:           "2",
				Name:         "Other Bookmarks",
				Type:         "folder",
			},
			"synced": {
				Children:     []chromeNode{},
				DateAdded:    timestamp,
				DateModified: timestamp,
				GUID:         "synced_bookmarks",
				ID:           "3",
				Name:         "Mobile Bookmarks",
				Type:         "folder",
			},
		},
		Version: 1,
	}

	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling chrome bookmarks: %w", err)
	}
	return string(out), nil
}

// firefoxNode is one entry in Firefox's places tree.
type firefoxNode struct {
	Children     []firefoxNode `json:"children,omitempty"`
	DateAdded    int64         `json:"dateAdded"`
	GUID         string        `json:"guid"`
	ID           int64         `json:"id"`
	Index        int           `json:"index"`
	LastModified int64         `json:"lastModified"`
	Root         string        `json:"root,omitempty"`
	Title        string        `json:"title"`
	Type         string        `json:"type"`
	URI          string        `json:"uri,omitempty"`
}

// FirefoxJSON renders Firefox's places JSON bookmark backup format.
func (e *Exporter) FirefoxJSON(resources []domain.Resource) (string, error) {
	timestamp := e.now().UnixMicro()
	groups := groupByCategory(resources)

	var folders []firefoxNode
	for _, group := range groups {
		var children []firefoxNode
		for _, res := range group.resources {
			url := e.resourceURL(&res)
			if url == "" {
				continue
			}
			children = append(children, firefoxNode{
				DateAdded:    timestamp,
				GUID:         guidFor(strconv.FormatInt(res.ID, 10)),
				ID:           res.ID,
				Index:        len(children),
				LastModified: timestamp,
				Title:        res.Title,
				Type:         "text/x-moz-place",
				URI:          url,
			})
		}
		if len(children) == 0 {
			continue
		}
		folders = append(folders, firefoxNode{
			Children:     children,
			DateAdded:    timestamp,
			GUID:         guidFor("folder_" + group.category),
			ID:           int64(len(folders) + 1000),
			Index:        len(folders),
			LastModified: timestamp,
			Root:         "bookmarksMenuFolder",
			Title:        group.category,
			Type:         "text/x-moz-place-container",
		})
	}

	root := firefoxNode{
		Children: []firefoxNode{{
			Children:     folders,
			DateAdded:    timestamp,
			GUID:         guidFor("cybercache"),
			ID:           1,
			Index:        0,
			LastModified: timestamp,
			Root:         "bookmarksMenuFolder",
			Title:        "CyberCache",
			Type:         "text/x-moz-place-container",
		}},
		DateAdded:    timestamp,
		GUID:         "root________",
		ID:           1,
		LastModified: timestamp,
		Root:         "placesRoot",
		Title:        "",
		Type:         "text/x-moz-place-container",
	}

	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling firefox bookmarks: %w", err)
	}
	return string(out), nil
}

// Export renders the requested format: "json" with browser "firefox" gives
// the Firefox tree, any other "json" browser gives Chrome's, and everything
// else falls back to the universal HTML format.
func (e *Exporter) Export(resources []domain.Resource, format, browser string) (string, error) {
	if strings.EqualFold(format, "json") {
		if strings.EqualFold(browser, "firefox") {
			return e.FirefoxJSON(resources)
		}
		return e.ChromeJSON(resources)
	}
	return e.HTML(resources), nil
}

// resourceURL resolves where a bookmark should point: links keep their URL,
// file resources point back at the service.
func (e *Exporter) resourceURL(res *domain.Resource) string {
	if res.URL != "" {
		return res.URL
	}
	if res.Type == domain.ResourceTypeFile && res.ID != 0 {
		return fmt.Sprintf("%s/resource/%d", e.fileBaseURL, res.ID)
	}
	return ""
}

type categoryGroup struct {
	category  string
	resources []domain.Resource
}

// groupByCategory buckets resources into name-sorted category groups.
// Uncategorised resources land in "Uncategorized".
func groupByCategory(resources []domain.Resource) []categoryGroup {
	buckets := make(map[string][]domain.Resource)
	for _, res := range resources {
		category := res.Category
		if category == "" {
			category = "Uncategorized"
		}
		buckets[category] = append(buckets[category], res)
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]categoryGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, categoryGroup{category: name, resources: buckets[name]})
	}
	return groups
}

// guidFor derives a stable GUID from a seed, so re-exports produce the same
// identifiers and browsers can reconcile them.
func guidFor(seed string) string {
	return uuid.NewMD5(uuid.NameSpaceOID, []byte(seed)).String()
}
