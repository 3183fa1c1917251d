package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/PressureTank/watchlist/backend/auth"
	"github.com/PressureTank/watchlist/backend/movie"
	"github.com/PressureTank/watchlist/backend/user"
)

//go:embed views/*.html
var viewFiles embed.FS

var viewNames = []string{"index", "edit", "login", "settings", "404"}

// Handler serves the HTML surface: the movie list, the create/edit/delete
// forms, settings, and login.
type Handler struct {
	movies movie.Database
	users  user.Database
	auth   *auth.Auth
	logger *zap.Logger
	views  map[string]*template.Template
}

func NewHandler(movies movie.Database, users user.Database, a *auth.Auth, logger *zap.Logger) (*Handler, error) {
	views := make(map[string]*template.Template, len(viewNames))
	for _, name := range viewNames {
		t, err := template.ParseFS(viewFiles, "views/base.html", "views/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse view %s: %w", name, err)
		}
		views[name] = t
	}

	return &Handler{
		movies: movies,
		users:  users,
		auth:   a,
		logger: logger,
		views:  views,
	}, nil
}

// Router builds the route table. Edit, delete, settings, and logout sit
// behind the login guard; the create POST checks authentication inline.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", h.IndexHandler).Methods("GET")
	r.HandleFunc("/", h.CreateMovieHandler).Methods("POST")
	r.Handle("/movie/edit/{id:[0-9]+}", h.auth.RequireLogin(http.HandlerFunc(h.EditMovieHandler))).Methods("GET", "POST")
	r.Handle("/movie/delete/{id:[0-9]+}", h.auth.RequireLogin(http.HandlerFunc(h.DeleteMovieHandler))).Methods("POST")
	r.Handle("/settings", h.auth.RequireLogin(http.HandlerFunc(h.SettingsHandler))).Methods("GET", "POST")
	r.HandleFunc("/login", h.LoginHandler).Methods("GET", "POST")
	r.Handle("/logout", h.auth.RequireLogin(http.HandlerFunc(h.LogoutHandler))).Methods("GET")
	r.NotFoundHandler = http.HandlerFunc(h.NotFoundHandler)
	return r
}

// page carries the data every view can reach: the watchlist owner for the
// heading, the logged-in principal for the nav, pending flashes, and the
// page-specific records.
type page struct {
	Owner   *user.User
	User    *user.User
	Flashes []string
	Movies  []movie.Movie
	Movie   *movie.Movie
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, p *page) {
	if p == nil {
		p = &page{}
	}
	if p.User == nil {
		p.User = h.auth.CurrentUser(r)
	}
	owner, err := h.users.FirstUser()
	if err == nil {
		p.Owner = owner
	}
	// PopFlashes sets the clearing cookie, so it must run before WriteHeader.
	p.Flashes = h.auth.PopFlashes(w, r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.views[name].ExecuteTemplate(w, "base", p); err != nil {
		h.logger.Error("Error rendering view", zap.String("view", name), zap.Error(err))
	}
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	h.logger.Error("Internal server error", zap.Error(err))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
