package database

import (
	"database/sql"
)

type PgManorRepository struct {
	conn *sql.DB
}

func NewPgManorRepository(dsn string) (*PgManorRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgManorRepository{conn: db}, nil
}

func (db *PgManorRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgManorRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
