package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
)

// SQLiteStore is a Store persisted to a SQLite file on disk.
type SQLiteStore struct {
	dbFilename string
	db         *sql.DB
}

// NewSQLiteStore opens (creating if needed) the catalog database inside
// storageDir.
func NewSQLiteStore(storageDir string) (*SQLiteStore, error) {
	st := &SQLiteStore{
		dbFilename: "catalog.db",
	}

	fileName := filepath.Join(storageDir, st.dbFilename)

	var err error
	st.db, err = sql.Open("sqlite", fileName)
	if err != nil {
		return nil, wrapDBError(err)
	}

	if err := st.init(); err != nil {
		return nil, err
	}

	return st, nil
}

func (st *SQLiteStore) init() error {
	stmt := `CREATE TABLE IF NOT EXISTS specs (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		doc TEXT NOT NULL,
		created INTEGER NOT NULL
	);`
	_, err := st.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (st *SQLiteStore) Create(ctx context.Context, e Entry) (Entry, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return Entry{}, fmt.Errorf("could not generate ID: %w", err)
	}

	docData, err := EncodeDocument(e.Doc)
	if err != nil {
		return Entry{}, fmt.Errorf("could not encode spec document: %w", err)
	}

	stmt, err := st.db.Prepare(`INSERT INTO specs (id, name, kind, doc, created) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return Entry{}, wrapDBError(err)
	}
	now := time.Now()

	_, err = stmt.ExecContext(ctx, newUUID.String(), e.Name, e.Doc.Kind, string(docData), now.Unix())
	if err != nil {
		return Entry{}, wrapDBError(err)
	}

	return st.GetByName(ctx, e.Name)
}

func (st *SQLiteStore) GetByName(ctx context.Context, name string) (Entry, error) {
	row := st.db.QueryRowContext(ctx, `SELECT id, name, doc, created FROM specs WHERE name = ?`, name)
	return scanEntry(row)
}

func (st *SQLiteStore) GetAll(ctx context.Context) ([]Entry, error) {
	rows, err := st.db.QueryContext(ctx, `SELECT id, name, doc, created FROM specs ORDER BY name;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return all, err
		}
		all = append(all, e)
	}
	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (st *SQLiteStore) Delete(ctx context.Context, name string) (Entry, error) {
	e, err := st.GetByName(ctx, name)
	if err != nil {
		return Entry{}, err
	}

	_, err = st.db.ExecContext(ctx, `DELETE FROM specs WHERE name = ?`, name)
	if err != nil {
		return Entry{}, wrapDBError(err)
	}

	return e, nil
}

func (st *SQLiteStore) Close() error {
	return st.db.Close()
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scannable) (Entry, error) {
	var e Entry
	var id string
	var docData string
	var created int64

	err := row.Scan(&id, &e.Name, &docData, &created)
	if err != nil {
		return Entry{}, wrapDBError(err)
	}

	e.ID, err = uuid.Parse(id)
	if err != nil {
		return Entry{}, fmt.Errorf("stored UUID %q is invalid", id)
	}
	e.Created = time.Unix(created, 0)

	e.Doc, err = ParseDocument([]byte(docData))
	if err != nil {
		return Entry{}, fmt.Errorf("spec %q: %w: %s", e.Name, ErrDecodingFailure, err.Error())
	}

	return e, nil
}

func wrapDBError(err error) error {
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		// the low byte is the primary result code; 19 is SQLITE_CONSTRAINT,
		// which extended codes such as SQLITE_CONSTRAINT_UNIQUE share.
		if sqliteErr.Code()&0xff == 19 {
			return ErrConstraintViolation
		}
		return fmt.Errorf("%s", sqlite.ErrorCodeString[sqliteErr.Code()])
	} else if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
