package pages

import "chemxplore/internal/session"

type Page struct {
	Path  string
	Name  string
	Title string
}

// Site is the ordered list of content pages, as shown in the navigation.
var Site = []Page{
	{Path: "/", Name: "Home", Title: "Invisible Ink Reaction Study"},
	{Path: "/chemicals", Name: "Chemicals", Title: "Chemicals Used"},
	{Path: "/procedure", Name: "Procedure", Title: "Experimental Procedure"},
	{Path: "/process", Name: "Process", Title: "Process & Workflow"},
	{Path: "/media", Name: "Media", Title: "Media Gallery"},
	{Path: "/faq", Name: "FAQ", Title: "Frequently Asked Questions"},
}

func Routes() []string {
	out := make([]string, 0, len(Site))
	for _, p := range Site {
		out = append(out, p.Path)
	}
	return out
}

func Lookup(route string) (Page, bool) {
	for _, p := range Site {
		if p.Path == route {
			return p, true
		}
	}
	return Page{}, false
}

type NavItem struct {
	Page
	Active bool
}

func Nav(active string) []NavItem {
	out := make([]NavItem, 0, len(Site))
	for _, p := range Site {
		out = append(out, NavItem{Page: p, Active: p.Path == active})
	}
	return out
}

// Context is everything a page needs to render. The signed-in user is passed
// in explicitly; User is nil for anonymous pages.
type Context struct {
	Page    Page
	User    *session.User
	Content *Content
	Nav     []NavItem
}
