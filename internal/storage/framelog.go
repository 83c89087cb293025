package storage

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/san-kum/orrery/internal/sim"
)

const frameSchema = `
CREATE TABLE bodies (
	frame    INTEGER,
	id       INTEGER,
	name     TEXT,
	x        REAL,
	y        REAL,
	z        REAL,
	angle    REAL,
	speed    REAL,
	rotation REAL,
	radius   REAL);
CREATE INDEX idx_frame ON bodies (frame, id);
`

const insertBody = `INSERT INTO bodies VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
const queryFrame = `SELECT frame, id, name, x, y, z, angle, speed, rotation, radius FROM bodies WHERE frame = ? ORDER BY id ASC;`
const countFrames = `SELECT COUNT(DISTINCT frame) FROM bodies;`

// BodyRow is one body in one logged frame.
type BodyRow struct {
	Frame    int
	ID       int
	Name     string
	X, Y, Z  float64
	Angle    float64
	Speed    float64
	Rotation float64
	Radius   float64
}

// FrameLog writes every body's state per frame to a SQLite database. Only
// one writer is useful, so FrameLog is not safe for concurrent use.
type FrameLog struct {
	db     *sql.DB
	insert *sql.Stmt
}

// CreateFrameLog creates a new database at filename. It refuses to
// overwrite an existing file.
func CreateFrameLog(filename string) (*FrameLog, error) {
	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("frame log %s already exists", filename)
	}
	db, err := sql.Open("sqlite3", "file:"+filename+"?_journal_mode=OFF&_synchronous=OFF")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(frameSchema); err != nil {
		db.Close()
		return nil, err
	}
	return prepare(db)
}

// OpenFrameLog opens an existing frame log for reading and appending.
func OpenFrameLog(filename string) (*FrameLog, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", "file:"+filename)
	if err != nil {
		return nil, err
	}
	return prepare(db)
}

func prepare(db *sql.DB) (*FrameLog, error) {
	stmt, err := db.Prepare(insertBody)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &FrameLog{db: db, insert: stmt}, nil
}

// Write stores snap as frame in one transaction.
func (l *FrameLog) Write(frame int, snap sim.Snapshot) error {
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	stmt := tx.Stmt(l.insert)
	for _, b := range snap.Bodies {
		_, err = stmt.Exec(frame, b.Index, b.Name,
			b.Position.X(), b.Position.Y(), b.Position.Z(),
			b.Angle, b.Speed, b.Rotation, b.Radius)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Frame returns the rows of one frame ordered by body id.
func (l *FrameLog) Frame(frame int) ([]BodyRow, error) {
	rows, err := l.db.Query(queryFrame, frame)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BodyRow
	for rows.Next() {
		var r BodyRow
		if err := rows.Scan(&r.Frame, &r.ID, &r.Name, &r.X, &r.Y, &r.Z, &r.Angle, &r.Speed, &r.Rotation, &r.Radius); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Frames returns the number of distinct frames logged.
func (l *FrameLog) Frames() (int, error) {
	var n int
	err := l.db.QueryRow(countFrames).Scan(&n)
	return n, err
}

func (l *FrameLog) Close() error {
	l.insert.Close()
	return l.db.Close()
}
