// Package views renders the server-side HTML pages. The *_templ.go files are generated from
// the .templ sources with `templ generate`.
package views

import (
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/oliverisaac/keepnotes/lib/lifecycle"
	"github.com/oliverisaac/keepnotes/types"
)

const binNotice = "Notes in the bin will be permanently deleted after 30 days."

var viewLabels = map[lifecycle.View]string{
	lifecycle.ViewActive:    "Notes",
	lifecycle.ViewArchived:  "Archive",
	lifecycle.ViewFavorites: "Favorites",
	lifecycle.ViewBin:       "Bin",
}

func currentView(s string) lifecycle.View {
	v, _ := lifecycle.ParseView(s)
	return v
}

func viewURL(v lifecycle.View) templ.SafeURL {
	if v == lifecycle.ViewBin {
		return "/bin"
	}
	return templ.SafeURL("/?view=" + url.QueryEscape(string(v)))
}

func actionURL(id string, a lifecycle.Action) templ.SafeURL {
	return templ.SafeURL("/notes/" + url.PathEscape(id) + "/actions/" + a.String())
}

func favoriteURL(id string) templ.SafeURL {
	return templ.SafeURL("/notes/" + url.PathEscape(id) + "/favorite")
}

// cardActions are the buttons a card shows in view. Editing has its own form.
func cardActions(view lifecycle.View) []lifecycle.Action {
	var out []lifecycle.Action
	for _, a := range lifecycle.AvailableIn(view) {
		if a.Mutates() && a != lifecycle.ActionEdit {
			out = append(out, a)
		}
	}
	return out
}

func actionLabel(a lifecycle.Action) string {
	if a == lifecycle.ActionPurgeForever {
		return "Delete forever"
	}
	s := a.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

func favoriteLabel(n types.Note) string {
	if n.IsFavorite {
		return "Unfavorite"
	}
	return "Favorite"
}

func snippet(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
