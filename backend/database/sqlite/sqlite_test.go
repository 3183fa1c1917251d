package sqlite

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestStore(t *testing.T) (*SQLiteDB, *sql.DB) {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ConfigurePool(db, 1, 1)
	require.NoError(t, RunMigrations(db))
	return NewSQLiteDB(db, zap.NewNop()), db
}

func TestMigrations(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ConfigurePool(db, 1, 1)

	require.NoError(t, RunMigrations(db))

	// Idempotent on a second run.
	require.NoError(t, RunMigrations(db))

	for _, table := range []string{"users", "movies", "sessions"} {
		_, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoErrorf(t, err, "table %s should exist after migrations", table)
	}

	require.NoError(t, DropAll(db))
	_, err = db.Exec("SELECT 1 FROM movies LIMIT 1")
	require.Error(t, err, "movies table should be gone after DropAll")

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	require.Zero(t, count)
}

func TestMovieCRUD(t *testing.T) {
	store, _ := newTestStore(t)

	movies, err := store.GetMovies()
	require.NoError(t, err)
	require.Empty(t, movies)

	require.NoError(t, store.AddMovie("Inception", "2010"))
	require.NoError(t, store.AddMovie("Leon", "1994"))

	movies, err = store.GetMovies()
	require.NoError(t, err)
	require.Len(t, movies, 2)
	require.Equal(t, "Inception", movies[0].Title)
	require.Equal(t, "2010", movies[0].Year)

	m, err := store.GetMovie(movies[1].ID)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, "Leon", m.Title)

	require.NoError(t, store.UpdateMovie(m.ID, "Léon", "1994"))
	m, err = store.GetMovie(m.ID)
	require.NoError(t, err)
	require.Equal(t, "Léon", m.Title)

	require.NoError(t, store.DeleteMovie(m.ID))
	m, err = store.GetMovie(m.ID)
	require.NoError(t, err)
	require.Nil(t, m, "deleted movie should not be found")

	movies, err = store.GetMovies()
	require.NoError(t, err)
	require.Len(t, movies, 1)
}

func TestGetMovieNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	m, err := store.GetMovie(42)
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestUpsertAdmin(t *testing.T) {
	store, db := newTestStore(t)

	u, err := store.FirstUser()
	require.NoError(t, err)
	require.Nil(t, u)

	require.NoError(t, store.UpsertAdmin("admin", "secret"))

	u, err = store.FirstUser()
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Equal(t, "admin", u.Username)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret")))

	// A second upsert rewrites the existing row instead of adding one.
	require.NoError(t, store.UpsertAdmin("root", "hunter2"))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	require.Equal(t, 1, count)

	u, err = store.FirstUser()
	require.NoError(t, err)
	require.Equal(t, "root", u.Username)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("hunter2")))
}

func TestUpdateUserName(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.UpsertAdmin("admin", "secret"))

	u, err := store.FirstUser()
	require.NoError(t, err)
	require.Empty(t, u.Name)

	require.NoError(t, store.UpdateUserName(u.ID, "Grey"))

	u, err = store.GetUserByID(u.ID)
	require.NoError(t, err)
	require.Equal(t, "Grey", u.Name)
}

func TestSessions(t *testing.T) {
	store, _ := newTestStore(t)

	userID, ok, err := store.SessionUserID("missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.CreateSession("tok-1", 7))

	userID, ok, err = store.SessionUserID("tok-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 7, userID)

	require.NoError(t, store.DeleteSession("tok-1"))

	_, ok, err = store.SessionUserID("tok-1")
	require.NoError(t, err)
	require.False(t, ok)
}
