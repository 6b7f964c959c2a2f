package handlers

import (
	"html/template"
	"net/http"

	"github.com/warbler-social/server/types"
)

// Pages are deliberately minimal markup: enough structure for the flows
// and for flash messages to reach the user. Full templating is out of
// scope for this server.
const layoutTemplate = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{.Title}} | Warbler</title></head>
<body>
{{- range .Flashes}}
<p class="flash">{{.}}</p>
{{- end}}
{{- if .Viewer}}
<nav><a href="/">Home</a> <a href="/users">Users</a> <a href="/users/profile">Profile</a> @{{.Viewer.Username}}
<form method="POST" action="/logout"><button>Log out</button></form></nav>
{{- else}}
<nav><a href="/">Home</a> <a href="/users">Users</a> <a href="/signup">Sign up</a> <a href="/login">Log in</a></nav>
{{- end}}
{{template "content" .}}
</body>
</html>`

var pageTemplates = map[string]*template.Template{}

func registerPage(name, content string) {
	pageTemplates[name] = template.Must(
		template.Must(template.New(name).Parse(layoutTemplate)).Parse(content),
	)
}

func init() {
	registerPage("home", `{{define "content"}}
{{- if .Viewer}}
<form method="POST" action="/messages/new">
<textarea name="text" placeholder="What's happening?"></textarea>
<button>Post</button>
</form>
{{- end}}
<ul>
{{- range .Data.Messages}}
<li><a href="/messages/{{.ID}}">{{.Text}}</a> &mdash; <a href="/users/{{.UserID}}">@{{.Username}}</a></li>
{{- end}}
</ul>
{{end}}`)

	registerPage("signup", `{{define "content"}}
<h1>Join Warbler today.</h1>
<form method="POST" action="/signup">
<input name="username" placeholder="Username">
<input name="email" placeholder="E-mail">
<input type="password" name="password" placeholder="Password">
<input name="image_url" placeholder="(Optional) Image URL">
<button>Sign me up!</button>
</form>
{{end}}`)

	registerPage("login", `{{define "content"}}
<h1>Welcome back.</h1>
<form method="POST" action="/login">
<input name="username" placeholder="Username">
<input type="password" name="password" placeholder="Password">
<button>Log in</button>
</form>
{{end}}`)

	registerPage("users", `{{define "content"}}
<ul>
{{- range .Data.Users}}
<li><a href="/users/{{.ID}}">@{{.Username}}</a>{{with .Bio}} &mdash; {{.}}{{end}}</li>
{{- end}}
</ul>
{{end}}`)

	registerPage("user", `{{define "content"}}
<h1>@{{.Data.User.Username}}</h1>
{{- with .Data.User.Bio}}<p>{{.}}</p>{{end}}
{{- with .Data.User.Location}}<p>{{.}}</p>{{end}}
<p>
<a href="/users/{{.Data.User.ID}}/following">Following</a>
<a href="/users/{{.Data.User.ID}}/followers">Followers</a>
<a href="/users/{{.Data.User.ID}}/likes">Likes</a>
</p>
{{- if and .Viewer (ne .Viewer.ID .Data.User.ID)}}
{{- if .Data.IsFollowing}}
<form method="POST" action="/users/stop-following/{{.Data.User.ID}}"><button>Unfollow</button></form>
{{- else}}
<form method="POST" action="/users/follow/{{.Data.User.ID}}"><button>Follow</button></form>
{{- end}}
{{- end}}
<ul>
{{- range .Data.Messages}}
<li><a href="/messages/{{.ID}}">{{.Text}}</a></li>
{{- end}}
</ul>
{{end}}`)

	registerPage("message", `{{define "content"}}
<blockquote>{{.Data.Message.Text}}</blockquote>
<p><a href="/users/{{.Data.Message.UserID}}">@{{.Data.Message.Username}}</a> &middot; {{.Data.Message.CreatedAt.Format "02 January 2006"}} &middot; {{.Data.LikeCount}} likes</p>
{{- if .Viewer}}
<form method="POST" action="/messages/{{.Data.Message.ID}}/like"><button>{{if .Data.HasLiked}}Unlike{{else}}Like{{end}}</button></form>
{{- if eq .Viewer.ID .Data.Message.UserID}}
<form method="POST" action="/messages/{{.Data.Message.ID}}/delete"><button>Delete</button></form>
{{- end}}
{{- end}}
{{end}}`)

	registerPage("profile", `{{define "content"}}
<h1>Edit your profile.</h1>
<form method="POST" action="/users/profile">
<input name="username" value="{{.Data.User.Username}}">
<input name="email" value="{{.Data.User.Email}}">
<input name="image_url" value="{{.Data.User.ImageURL}}">
<input name="header_image_url" value="{{.Data.User.HeaderImageURL}}">
<input name="location" value="{{.Data.User.Location}}">
<textarea name="bio">{{.Data.User.Bio}}</textarea>
<input type="password" name="password" placeholder="Confirm password to save">
<button>Save</button>
</form>
<form method="POST" action="/users/delete"><button>Delete account</button></form>
{{end}}`)

	registerPage("notfound", `{{define "content"}}
<h1>Not found.</h1>
{{end}}`)
}

type page struct {
	Title   string
	Flashes []string
	Viewer  *types.User
	Data    any
}

func (h *Web) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	tmpl, ok := pageTemplates[name]
	if !ok {
		http.Error(w, "page not found", http.StatusInternalServerError)
		return
	}

	var viewer *types.User
	if user, ok := h.viewer(r); ok {
		viewer = &user
	}

	p := page{
		Title:   title,
		Flashes: h.sessions.Flashes(w, r),
		Viewer:  viewer,
		Data:    data,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, p); err != nil {
		h.logger.WithError(err).WithField("page", name).Error("failed to render page")
	}
}

func (h *Web) renderNotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "notfound", "Not found", nil)
}
