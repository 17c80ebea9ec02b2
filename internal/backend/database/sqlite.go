package database

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteDatabase struct {
	db *sql.DB
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// Every pooled connection to ":memory:" would see its own empty database
	db.SetMaxOpenConns(1)

	return &SQLiteDatabase{db: db}, nil
}

func (s *SQLiteDatabase) CreateDatabase() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS previews (
		id TEXT PRIMARY KEY,
		content_type TEXT NOT NULL,
		data BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist() bool {
	// In SQLite, the database file is created when you connect to it.
	// So we can assume it exists if we can successfully ping the database.
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteDatabase) CreatePreview(preview *Preview) (string, error) {
	if preview == nil || len(preview.Data) == 0 {
		return "", fmt.Errorf("preview data must not be empty")
	}
	id := generateID()
	_, err := s.db.Exec("INSERT INTO previews (id, content_type, data) VALUES (?, ?, ?)",
		id, preview.ContentType, preview.Data)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLiteDatabase) GetPreview(id string) (*Preview, error) {
	row := s.db.QueryRow("SELECT id, content_type, data FROM previews WHERE id = ?", id)
	var preview Preview
	if err := row.Scan(&preview.ID, &preview.ContentType, &preview.Data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPreviewNotFound
		}
		return nil, err
	}
	return &preview, nil
}

func (s *SQLiteDatabase) DeletePreview(id string) error {
	result, err := s.db.Exec("DELETE FROM previews WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPreviewNotFound
	}
	return nil
}

func (s *SQLiteDatabase) CountPreviews() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM previews").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
