package views

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"
	"github.com/loganlanou/snapgram/views/helpers"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"formatDate":     helpers.FormatDate,
	"formatDateTime": helpers.FormatDateTime,
	"timeAgo":        helpers.TimeAgo,
	"stressLevel":    helpers.FormatStressLevel,
	"stressLabel":    helpers.StressLabel,
}

var (
	authTmpl        = parsePage("auth")
	profileTmpl     = parsePage("profile")
	feedTmpl        = parsePage("feed")
	createPostTmpl  = parsePage("create-post")
	editProfileTmpl = parsePage("edit-profile")
	alertTmpl       = template.Must(template.New("alert").Funcs(funcs).ParseFS(templateFS, "templates/alert.html"))
)

// parsePage pairs the shared layout with one page file defining "content".
func parsePage(name string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS,
		"templates/layout.html",
		"templates/"+name+".html",
	))
}

func component(t *template.Template, name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, name, data)
	})
}

func Login(p AuthPage) templ.Component {
	p.Signup = false
	return component(authTmpl, "layout", p)
}

func Signup(p AuthPage) templ.Component {
	p.Signup = true
	return component(authTmpl, "layout", p)
}

func Profile(p ProfilePage) templ.Component {
	return component(profileTmpl, "layout", p)
}

func Feed(p FeedPage) templ.Component {
	return component(feedTmpl, "layout", p)
}

func CreatePost(p CreatePostPage) templ.Component {
	return component(createPostTmpl, "layout", p)
}

func EditProfile(p EditProfilePage) templ.Component {
	return component(editProfileTmpl, "layout", p)
}

// Alert renders a bare page whose only job is to alert Message and navigate to
// Redirect. Both values are escaped as JavaScript strings.
func Alert(p AlertPage) templ.Component {
	return component(alertTmpl, "alert", p)
}
