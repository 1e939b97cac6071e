// Package nav describes the navigation shell: the route map, active-link
// highlighting and the mobile menu flag.
package nav

import "net/http"

type Route struct {
	Path  string
	Label string
	// Mobile is false for links left out of the collapsed menu.
	Mobile bool
}

var Routes = []Route{
	{Path: "/", Label: "Home", Mobile: false},
	{Path: "/live", Label: "Live Detection", Mobile: true},
	{Path: "/upload", Label: "Upload", Mobile: true},
}

type Link struct {
	Route
	Active bool
	// Href is where the link points. Mobile links carry FromMenu so
	// following one closes the menu.
	Href string
}

// FromMenu is the query flag set on links inside the mobile menu.
const FromMenu = "menu=close"

// Links returns the route map with the entry matching current (exactly)
// marked active.
func Links(current string) []Link {
	links := make([]Link, len(Routes))
	for i, r := range Routes {
		links[i] = Link{Route: r, Active: r.Path == current, Href: r.Path}
	}
	return links
}

func MobileLinks(current string) []Link {
	var out []Link
	for _, l := range Links(current) {
		if l.Mobile {
			l.Href = l.Path + "?" + FromMenu
			out = append(out, l)
		}
	}
	return out
}

const menuCookie = "profit_menu"

// Menu is the mobile menu's open/closed flag.
type Menu struct {
	Open bool
}

func (m Menu) Toggle() Menu { return Menu{Open: !m.Open} }

func MenuFrom(r *http.Request) Menu {
	c, err := r.Cookie(menuCookie)
	if err != nil {
		return Menu{}
	}
	return Menu{Open: c.Value == "open"}
}

// Navigated reports whether r came from a mobile menu link; the menu closes
// behind it.
func Navigated(r *http.Request) bool {
	return r.URL.RawQuery == FromMenu
}

func (m Menu) Cookie() *http.Cookie {
	v := "closed"
	if m.Open {
		v = "open"
	}
	return &http.Cookie{
		Name:     menuCookie,
		Value:    v,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
