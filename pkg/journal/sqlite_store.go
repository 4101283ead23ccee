package journal

import (
	"database/sql"
	"strings"
	"time"

	"github.com/okvist/invoker/pkg/api"
)

// SQLiteStore is a Store backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing the
// driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database and
// returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS journal (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			group_name TEXT NOT NULL,
			action_id INTEGER NOT NULL,
			action_name TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			duration_ns INTEGER NOT NULL,
			result BLOB,
			recorded_at TEXT NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteStore) Append(entry *Entry) error {
	// Unencodable results (closures, channels) are stored as NULL rather
	// than failing the append.
	result, err := EncodeValue(entry.Result)
	if err != nil {
		result = nil
	}

	res, err := s.db.Exec(`
		INSERT INTO journal (group_name, action_id, action_name, status, error, duration_ns, result, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Group,
		int64(entry.ActionID),
		entry.Action,
		string(entry.Status),
		entry.Error,
		entry.Duration.Nanoseconds(),
		result,
		entry.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}
	entry.Seq = seq
	return nil
}

func (s *SQLiteStore) List(filter Filter) ([]*Entry, error) {
	query := `
		SELECT seq, group_name, action_id, action_name, status, error, duration_ns, result, recorded_at
		FROM journal`
	var args []any
	var clauses []string

	if filter.Group != "" {
		clauses = append(clauses, "group_name = ?")
		args = append(args, filter.Group)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.ActionID != 0 {
		clauses = append(clauses, "action_id = ?")
		args = append(args, int64(filter.ActionID))
	}

	if len(clauses) > 0 {
		query = query + " WHERE " + strings.Join(clauses, " AND ")
	}
	query = query + " ORDER BY seq"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry

	for rows.Next() {
		var entry Entry
		var actionID, durationNs int64
		var statusStr, recordedAt string
		var errStr sql.NullString
		var result []byte

		if err := rows.Scan(&entry.Seq, &entry.Group, &actionID, &entry.Action, &statusStr, &errStr, &durationNs, &result, &recordedAt); err != nil {
			return nil, err
		}

		entry.ActionID = api.ActionID(actionID)
		entry.Status = Status(statusStr)
		entry.Duration = time.Duration(durationNs)
		if errStr.Valid {
			entry.Error = errStr.String
		}

		value, err := DecodeValue(result)
		if err != nil {
			return nil, err
		}
		entry.Result = value

		ts, err := time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, err
		}
		entry.RecordedAt = ts

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
