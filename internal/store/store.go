package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Sentinel errors surfaced to the HTTP layer.
var (
	// ErrSessionClosed is returned when closing a session that already
	// has an end time. Callers treat it as benign.
	ErrSessionClosed = errors.New("session already closed")
	// ErrQuizAnswered is returned when recording an answer on a quiz
	// that was already answered.
	ErrQuizAnswered = errors.New("quiz already answered")
	// ErrPauseResumed is returned when resuming a pause that already
	// has a resume time.
	ErrPauseResumed = errors.New("pause already resumed")
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		preferred_language TEXT NOT NULL DEFAULT 'en',
		skill_level TEXT NOT NULL DEFAULT 'Beginner',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT 'Python',
		topic TEXT NOT NULL DEFAULT '',
		solution TEXT NOT NULL DEFAULT '',
		examples TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		total_messages INTEGER NOT NULL DEFAULT 0,
		average_sentiment REAL NOT NULL DEFAULT 0,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	-- One active session per user, enforced structurally.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_active
		ON sessions(user_id) WHERE ended_at IS NULL;

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		sender TEXT NOT NULL,
		body TEXT NOT NULL,
		sentiment_score REAL NOT NULL DEFAULT 0,
		emotion_category TEXT NOT NULL DEFAULT 'neutral',
		topic TEXT NOT NULL DEFAULT '',
		quiz_generated INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id),
		FOREIGN KEY (user_id) REFERENCES users(id)
	);
	CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);

	CREATE TABLE IF NOT EXISTS emotional_trends (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		session_id INTEGER NOT NULL,
		sentiment_score REAL NOT NULL,
		emotion_category TEXT NOT NULL,
		topic TEXT NOT NULL DEFAULT '',
		message_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);
	CREATE INDEX IF NOT EXISTS idx_trends_user_time
		ON emotional_trends(user_id, created_at);

	CREATE TABLE IF NOT EXISTS quizzes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		topic TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		question TEXT NOT NULL,
		options TEXT NOT NULL,
		correct_answer INTEGER NOT NULL,
		explanation TEXT NOT NULL DEFAULT '',
		user_answer INTEGER,
		is_correct INTEGER,
		generated_at DATETIME NOT NULL,
		answered_at DATETIME,
		FOREIGN KEY (session_id) REFERENCES sessions(id),
		FOREIGN KEY (user_id) REFERENCES users(id)
	);
	CREATE INDEX IF NOT EXISTS idx_quizzes_user ON quizzes(user_id);

	CREATE TABLE IF NOT EXISTS spaced_repetition (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		topic_id INTEGER NOT NULL,
		difficulty_level INTEGER NOT NULL DEFAULT 1,
		next_review DATETIME NOT NULL,
		review_count INTEGER NOT NULL DEFAULT 0,
		success_rate REAL NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL,
		UNIQUE(user_id, topic_id),
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (topic_id) REFERENCES questions(id)
	);

	CREATE TABLE IF NOT EXISTS bookmarks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		question_id INTEGER,
		message_id INTEGER,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS question_progress (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		attempted INTEGER NOT NULL DEFAULT 0,
		solved INTEGER NOT NULL DEFAULT 0,
		last_answer TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL,
		UNIQUE(user_id, question_id),
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (question_id) REFERENCES questions(id)
	);

	CREATE TABLE IF NOT EXISTS session_pauses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		paused_at DATETIME NOT NULL,
		resumed_at DATETIME,
		reason TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}
