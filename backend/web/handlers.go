package web

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/PressureTank/watchlist/backend/auth"
	"github.com/PressureTank/watchlist/backend/movie"
	"github.com/PressureTank/watchlist/backend/user"
)

func (h *Handler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	movies, err := h.movies.GetMovies()
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.render(w, r, http.StatusOK, "index", &page{Movies: movies})
}

// CreateMovieHandler checks authentication inline rather than through the
// guard: an anonymous POST is bounced to the index, not the login page.
func (h *Handler) CreateMovieHandler(w http.ResponseWriter, r *http.Request) {
	if h.auth.CurrentUser(r) == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	title := r.FormValue("title")
	year := r.FormValue("year")
	if !movie.ValidTitle(title) || !movie.ValidNewYear(year) {
		h.auth.Flash(w, "Invalid input.")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if err := h.movies.AddMovie(title, year); err != nil {
		h.serverError(w, err)
		return
	}
	h.auth.Flash(w, "Item created.")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) EditMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	m, err := h.movies.GetMovie(id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if m == nil {
		h.NotFoundHandler(w, r)
		return
	}

	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, "edit", &page{Movie: m})
		return
	}

	title := r.FormValue("title")
	year := r.FormValue("year")
	// The edit form demands a four-character year; the create form does not.
	if !movie.ValidTitle(title) || !movie.ValidEditYear(year) {
		h.auth.Flash(w, "Invalid input.")
		http.Redirect(w, r, "/movie/edit/"+strconv.Itoa(id), http.StatusFound)
		return
	}

	if err := h.movies.UpdateMovie(id, title, year); err != nil {
		h.serverError(w, err)
		return
	}
	h.auth.Flash(w, "Item updated.")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) DeleteMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	m, err := h.movies.GetMovie(id)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if m == nil {
		h.NotFoundHandler(w, r)
		return
	}

	if err := h.movies.DeleteMovie(id); err != nil {
		h.serverError(w, err)
		return
	}
	h.auth.Flash(w, "Item deleted.")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, "settings", &page{User: u})
		return
	}

	name := r.FormValue("name")
	if !user.ValidName(name) {
		h.auth.Flash(w, "Invalid input.")
		http.Redirect(w, r, "/settings", http.StatusFound)
		return
	}

	if err := h.users.UpdateUserName(u.ID, name); err != nil {
		h.serverError(w, err)
		return
	}
	h.auth.Flash(w, "Settings updated.")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, "login", nil)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		h.auth.Flash(w, "Invalid input.")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	_, err := h.auth.SignIn(w, username, password)
	if err == auth.ErrInvalidCredentials {
		h.auth.Flash(w, "Invalid username or password.")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.auth.Flash(w, "Login success.")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.auth.SignOut(w, r)
	h.auth.Flash(w, "Goodbye.")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "404", nil)
}
