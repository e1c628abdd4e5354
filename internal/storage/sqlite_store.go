package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

// ErrNoData indicates that no stored data matches the request, or that a
// reader has returned everything there was.
var ErrNoData = errors.New("no data available")

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the SQLite database at dbPath.
// Connections are opened and the schema initialised on first use.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateSession(ctx context.Context, model, resource string, config any) (sessionID int64, err error) {
	configData, err := toJSONString(config)
	if err != nil {
		err = fmt.Errorf("encoding config: %w", err)
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, model, resource, configData)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
	}
	return
}

func (s *SqliteStore) Session(ctx context.Context, id int64) (session *Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var sess Session
	var config sql.NullString
	if err = stmt.QueryRowContext(ctx, id).Scan(&sess.ID, &sess.StartTime, &sess.Model, &sess.Resource, &config); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("session %d: %w", id, ErrNoData)
			return
		}
		err = fmt.Errorf("scanning session: %w", err)
		return
	}
	sess.Config = fromNullString(config)

	return &sess, nil
}

func (s *SqliteStore) Sessions(ctx context.Context) (sessions []*Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess Session
		var config sql.NullString
		if err = rows.Scan(&sess.ID, &sess.StartTime, &sess.Model, &sess.Resource, &config); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		sess.Config = fromNullString(config)
		sessions = append(sessions, &sess)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating sessions: %w", err)
	}
	return
}

func (s *SqliteStore) StoreSweep(ctx context.Context, sessionID int64, data *vna.Data, settings any) (sweepID int64, err error) {
	if err = data.Validate(); err != nil {
		return
	}

	settingsData, err := toJSONString(settings)
	if err != nil {
		err = fmt.Errorf("encoding settings: %w", err)
		return
	}
	sweep, err := toSweepData(sessionID, data, settingsData)
	if err != nil {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		err = fmt.Errorf("beginning transaction: %w", err)
		return
	}
	defer rollbackWithError(tx, &err)

	result, err := tx.ExecContext(ctx, insertSweepSQL,
		sweep.SessionID,
		sweep.Timestamp,
		sweep.Format,
		sweep.Points,
		sweep.Parameters,
		sweep.Settings,
	)
	if err != nil {
		err = fmt.Errorf("inserting sweep: %w", err)
		return
	}
	if sweepID, err = result.LastInsertId(); err != nil {
		err = fmt.Errorf("getting sweep ID: %w", err)
		return
	}

	for i, port := range data.Ports {
		z := data.PortZr[i]
		if _, err = tx.ExecContext(ctx, insertPortImpedanceSQL, sweepID, port, real(z), imag(z)); err != nil {
			err = fmt.Errorf("inserting port %d impedance: %w", port, err)
			return
		}
	}

	if err = insertSamples(ctx, tx, toSampleData(sweepID, data)); err != nil {
		return
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("committing transaction: %w", err)
	}
	return
}

func insertSamples(ctx context.Context, tx *sql.Tx, samples []sampleData) error {
	for len(samples) > 0 {
		n := min(len(samples), samplesPerInsert)

		values := make([]any, 0, n*6)
		for _, sample := range samples[:n] {
			values = append(values,
				sample.SweepID,
				sample.Parameter,
				sample.Point,
				sample.Frequency,
				sample.Re,
				sample.Im,
			)
		}

		if _, err := tx.ExecContext(ctx, batchInsert(insertSampleSQL, n, 6), values...); err != nil {
			return fmt.Errorf("batch inserting samples: %w", err)
		}
		samples = samples[n:]
	}
	return nil
}

func (s *SqliteStore) Sweeps(ctx context.Context, sessionID int64) (sweeps []*Sweep, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSweepsSQL, sessionID)
	if err != nil {
		err = fmt.Errorf("querying sweeps: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sweep Sweep
		var parameters string
		var settings sql.NullString
		if err = rows.Scan(&sweep.ID, &sweep.SessionID, &sweep.Timestamp, &sweep.Format, &sweep.Points, &parameters, &settings); err != nil {
			err = fmt.Errorf("scanning sweep: %w", err)
			return
		}
		if err = json.Unmarshal([]byte(parameters), &sweep.Parameters); err != nil {
			err = fmt.Errorf("decoding sweep %d parameters: %w", sweep.ID, err)
			return
		}
		sweep.Settings = fromNullString(settings)
		sweeps = append(sweeps, &sweep)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating sweeps: %w", err)
		return
	}

	for _, sweep := range sweeps {
		if sweep.PortZr, err = portImpedances(ctx, db, sweep.ID); err != nil {
			return
		}
	}
	return
}

func portImpedances(ctx context.Context, db *sql.DB, sweepID int64) (zr map[int]complex128, err error) {
	rows, err := db.QueryContext(ctx, selectPortImpedancesSQL, sweepID)
	if err != nil {
		err = fmt.Errorf("querying port impedances: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	zr = make(map[int]complex128)
	for rows.Next() {
		var port int
		var re, im float64
		if err = rows.Scan(&port, &re, &im); err != nil {
			err = fmt.Errorf("scanning port impedance: %w", err)
			return
		}
		zr[port] = complex(re, im)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) Trace(ctx context.Context, sweepID int64, parameter string) (trace *Trace, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}
	return readTrace(ctx, db, sweepID, parameter)
}

func readTrace(ctx context.Context, db *sql.DB, sweepID int64, parameter string) (trace *Trace, err error) {
	rows, err := db.QueryContext(ctx, selectTraceSQL, sweepID, parameter)
	if err != nil {
		err = fmt.Errorf("querying trace: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	t := Trace{SweepID: sweepID, Parameter: parameter}
	for rows.Next() {
		var freq, re, im float64
		if err = rows.Scan(&freq, &re, &im); err != nil {
			err = fmt.Errorf("scanning sample: %w", err)
			return
		}
		t.Frequency = append(t.Frequency, freq)
		t.Samples = append(t.Samples, complex(re, im))
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating samples: %w", err)
		return
	}
	if len(t.Samples) == 0 {
		err = fmt.Errorf("sweep %d parameter %s: %w", sweepID, parameter, ErrNoData)
		return
	}
	return &t, nil
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}

var _ Store = (*SqliteStore)(nil)
