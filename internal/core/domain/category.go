package domain

import "time"

// Category is a curated label with a URL-safe slug and an icon reference.
// The catalogue seeds a fixed default set on first initialisation; resource
// categories are free text and need not reference a Category row.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	CreatedAt   time.Time `json:"created_at"`
}

// DefaultCategories is the seed set applied at store initialisation.
var DefaultCategories = []Category{
	{Name: "Posters", Slug: "posters", Description: "Visual reference materials", Icon: "fa-image"},
	{Name: "Cheat Sheets", Slug: "cheatsheets", Description: "Technical reference documents", Icon: "fa-file-text"},
	{Name: "Publications", Slug: "publications", Description: "Research papers and guides", Icon: "fa-book"},
	{Name: "Media & Socials", Slug: "media", Description: "Video content and social profiles", Icon: "fa-video-camera"},
	{Name: "Training", Slug: "training", Description: "Learning resources and challenges", Icon: "fa-graduation-cap"},
	{Name: "Tooling", Slug: "tooling", Description: "Security tool collections", Icon: "fa-wrench"},
	{Name: "Projects", Slug: "projects", Description: "Security frameworks and projects", Icon: "fa-folder"},
	{Name: "Virtual Machines", Slug: "vms", Description: "VM resources", Icon: "fa-desktop"},
	{Name: "Blue Team", Slug: "blue", Description: "Cyber Defence resources", Icon: "fa-shield"},
	{Name: "Red Team", Slug: "red", Description: "Offensive Cyber resources", Icon: "fa-bomb"},
	{Name: "Threat Intelligence", Slug: "intelligence", Description: "Threat intel resources", Icon: "fa-eye"},
}
