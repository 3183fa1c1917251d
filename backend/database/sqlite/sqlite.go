package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/PressureTank/watchlist/backend/movie"
	"github.com/PressureTank/watchlist/backend/user"
)

// SQLiteDB backs the movie, user, and session interfaces with a single
// sqlite database. Every mutation is its own implicit transaction.
type SQLiteDB struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLiteDB(db *sql.DB, logger *zap.Logger) *SQLiteDB {
	return &SQLiteDB{
		db:     db,
		logger: logger,
	}
}

// Open opens a sqlite database at path and verifies the connection.
// The path can be ":memory:" for an in-memory database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigurePool sets connection pool limits on the database.
func ConfigurePool(db *sql.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
}

func (s *SQLiteDB) GetMovies() ([]movie.Movie, error) {
	rows, err := s.db.Query("SELECT id, title, year FROM movies ORDER BY id")
	if err != nil {
		s.logger.Error("Error fetching movies from database", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var movies []movie.Movie
	for rows.Next() {
		var m movie.Movie
		err := rows.Scan(&m.ID, &m.Title, &m.Year)
		if err != nil {
			s.logger.Error("Error scanning movie row", zap.Error(err))
			return nil, err
		}
		movies = append(movies, m)
	}

	return movies, rows.Err()
}

func (s *SQLiteDB) GetMovie(id int) (*movie.Movie, error) {
	row := s.db.QueryRow("SELECT id, title, year FROM movies WHERE id=?", id)
	var m movie.Movie
	err := row.Scan(&m.ID, &m.Title, &m.Year)
	if err == sql.ErrNoRows {
		// Movie not found
		return nil, nil
	} else if err != nil {
		s.logger.Error("Error fetching movie from database", zap.Error(err))
		return nil, err
	}
	return &m, nil
}

func (s *SQLiteDB) AddMovie(title, year string) error {
	_, err := s.db.Exec("INSERT INTO movies (title, year) VALUES (?, ?)", title, year)
	if err != nil {
		s.logger.Error("Error inserting movie into database", zap.Error(err))
		return err
	}
	return nil
}

func (s *SQLiteDB) UpdateMovie(id int, title, year string) error {
	_, err := s.db.Exec("UPDATE movies SET title=?, year=? WHERE id=?", title, year, id)
	if err != nil {
		s.logger.Error("Error updating movie in database", zap.Error(err))
		return err
	}
	return nil
}

func (s *SQLiteDB) DeleteMovie(id int) error {
	_, err := s.db.Exec("DELETE FROM movies WHERE id=?", id)
	if err != nil {
		s.logger.Error("Error deleting movie from database", zap.Error(err))
		return err
	}
	return nil
}

// FirstUser returns the first stored user row, or nil when none exists.
// The application is single-tenant: this is the only credential record
// login ever consults.
func (s *SQLiteDB) FirstUser() (*user.User, error) {
	row := s.db.QueryRow("SELECT id, username, name, password FROM users ORDER BY id LIMIT 1")
	return s.scanUser(row)
}

func (s *SQLiteDB) GetUserByID(id int) (*user.User, error) {
	row := s.db.QueryRow("SELECT id, username, name, password FROM users WHERE id=?", id)
	return s.scanUser(row)
}

func (s *SQLiteDB) scanUser(row *sql.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash)
	if err == sql.ErrNoRows {
		// User not found
		return nil, nil
	} else if err != nil {
		s.logger.Error("Error fetching user from database", zap.Error(err))
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteDB) UpdateUserName(id int, name string) error {
	_, err := s.db.Exec("UPDATE users SET name=? WHERE id=?", name, id)
	if err != nil {
		s.logger.Error("Error updating user name in database", zap.Error(err))
		return err
	}
	return nil
}

// UpsertAdmin creates the admin user, or updates its username and password
// when a user row already exists. The table never holds more than one row.
func (s *SQLiteDB) UpsertAdmin(username, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Error hashing user password", zap.Error(err))
		return err
	}

	existing, err := s.FirstUser()
	if err != nil {
		return err
	}
	if existing != nil {
		_, err = s.db.Exec("UPDATE users SET username=?, password=? WHERE id=?", username, hashedPassword, existing.ID)
	} else {
		_, err = s.db.Exec("INSERT INTO users (username, name, password) VALUES (?, '', ?)", username, hashedPassword)
	}
	if err != nil {
		s.logger.Error("Error storing admin user in database", zap.Error(err))
		return err
	}
	return nil
}

func (s *SQLiteDB) CreateSession(token string, userID int) error {
	_, err := s.db.Exec("INSERT INTO sessions (token, user_id) VALUES (?, ?)", token, userID)
	if err != nil {
		s.logger.Error("Error inserting session into database", zap.Error(err))
		return err
	}
	return nil
}

func (s *SQLiteDB) SessionUserID(token string) (int, bool, error) {
	row := s.db.QueryRow("SELECT user_id FROM sessions WHERE token=?", token)
	var userID int
	err := row.Scan(&userID)
	if err == sql.ErrNoRows {
		// Session not found or already invalidated
		return 0, false, nil
	} else if err != nil {
		s.logger.Error("Error fetching session from database", zap.Error(err))
		return 0, false, err
	}
	return userID, true, nil
}

func (s *SQLiteDB) DeleteSession(token string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE token=?", token)
	if err != nil {
		s.logger.Error("Error deleting session from database", zap.Error(err))
		return err
	}
	return nil
}
