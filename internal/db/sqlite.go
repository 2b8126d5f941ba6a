package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/oklog/ulid/v2"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ukydev/maintenance-tracker/db/migrations"
	"github.com/ukydev/maintenance-tracker/internal/models"
	"github.com/ukydev/maintenance-tracker/internal/xerrors"
)

const recordColumns = `id, vehicle_id, date, mileage, service_type, description, works_performed,
	next_service_date, next_service_mileage, is_planned, attachment_text, created_at, updated_at`

// SQLiteStore persists vehicles and records in a local SQLite file. Times are
// stored as unix milliseconds in UTC.
type SQLiteStore struct {
	DB *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// embedded migrations. ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	var dsn string
	if path == ":memory:" {
		dsn = fmt.Sprintf("file:mem-%s?mode=memory&cache=shared", ulid.Make().String())
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(absPath))
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps the in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{DB: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to initialise migrate driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrations.Files, ".")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	defer func() {
		_ = sourceDriver.Close()
	}()

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqliteTxKey struct{}

func (s *SQLiteStore) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(sqliteTxKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.DB
}

// WithTransaction runs fn in a database transaction carried on the context.
// Nested calls join the outer transaction.
func (s *SQLiteStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(sqliteTxKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(context.WithValue(ctx, sqliteTxKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback error: %w)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// InsertRecord inserts a maintenance record.
func (s *SQLiteStore) InsertRecord(ctx context.Context, r models.MaintenanceRecord) error {
	_, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO maintenance_records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.VehicleID, toMillis(r.Date), r.Mileage, r.ServiceType, r.Description, r.WorksPerformed,
		toMillis(r.NextServiceDate), r.NextServiceMileage, r.IsPlanned, r.AttachmentText,
		toMillis(r.CreatedAt), toMillis(r.UpdatedAt))
	if err != nil {
		return mapSQLiteError(fmt.Sprintf("insert record %s", r.ID), err)
	}
	return nil
}

// FindRecordByID finds a maintenance record by its ID.
func (s *SQLiteStore) FindRecordByID(ctx context.Context, id string) (*models.MaintenanceRecord, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM maintenance_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, xerrors.NotFound("record", id)
		}
		return nil, err
	}
	return &record, nil
}

// FindRecords queries maintenance records, most recent first.
func (s *SQLiteStore) FindRecords(ctx context.Context, q RecordQuery) ([]models.MaintenanceRecord, error) {
	var (
		where []string
		args  []any
	)
	if q.VehicleID != "" {
		where = append(where, "vehicle_id = ?")
		args = append(args, q.VehicleID)
	}
	if q.IsPlanned != nil {
		where = append(where, "is_planned = ?")
		args = append(args, *q.IsPlanned)
	}
	if q.NextServiceDate != nil {
		where = append(where, "next_service_date = ?")
		args = append(args, toMillis(*q.NextServiceDate))
	}

	query := `SELECT ` + recordColumns + ` FROM maintenance_records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id ASC"

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []models.MaintenanceRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// UpdateRecord replaces a maintenance record by its ID.
func (s *SQLiteStore) UpdateRecord(ctx context.Context, r models.MaintenanceRecord) error {
	result, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE maintenance_records SET date = ?, mileage = ?, service_type = ?, description = ?,
			works_performed = ?, next_service_date = ?, next_service_mileage = ?, is_planned = ?,
			attachment_text = ?, updated_at = ?
		 WHERE id = ?`,
		toMillis(r.Date), r.Mileage, r.ServiceType, r.Description, r.WorksPerformed,
		toMillis(r.NextServiceDate), r.NextServiceMileage, r.IsPlanned, r.AttachmentText,
		toMillis(r.UpdatedAt), r.ID)
	if err != nil {
		return mapSQLiteError(fmt.Sprintf("update record %s", r.ID), err)
	}
	return requireAffected(result, "record", r.ID)
}

// DeleteRecord deletes a maintenance record by its ID.
func (s *SQLiteStore) DeleteRecord(ctx context.Context, id string) error {
	result, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM maintenance_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return requireAffected(result, "record", id)
}

// InsertVehicle inserts a vehicle.
func (s *SQLiteStore) InsertVehicle(ctx context.Context, v models.Vehicle) error {
	_, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO vehicles (id, make, model, year, vin, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.Make, v.Model, v.Year, v.VIN, toMillis(v.CreatedAt))
	if err != nil {
		return mapSQLiteError(fmt.Sprintf("insert vehicle %s", v.ID), err)
	}
	return nil
}

// FindVehicleByID finds a vehicle by its ID.
func (s *SQLiteStore) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT id, make, model, year, vin, created_at FROM vehicles WHERE id = ?`, id)
	vehicle, err := scanVehicle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, xerrors.NotFound("vehicle", id)
		}
		return nil, err
	}
	return &vehicle, nil
}

// FindVehicles lists all vehicles, oldest first.
func (s *SQLiteStore) FindVehicles(ctx context.Context) ([]models.Vehicle, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT id, make, model, year, vin, created_at FROM vehicles ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []models.Vehicle{}
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, vehicle)
	}
	return vehicles, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close(context.Context) error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (models.MaintenanceRecord, error) {
	var (
		r                                models.MaintenanceRecord
		date, next, createdAt, updatedAt int64
	)
	err := row.Scan(&r.ID, &r.VehicleID, &date, &r.Mileage, &r.ServiceType, &r.Description,
		&r.WorksPerformed, &next, &r.NextServiceMileage, &r.IsPlanned, &r.AttachmentText,
		&createdAt, &updatedAt)
	if err != nil {
		return r, err
	}
	r.Date = fromMillis(date)
	r.NextServiceDate = fromMillis(next)
	r.CreatedAt = fromMillis(createdAt)
	r.UpdatedAt = fromMillis(updatedAt)
	return r, nil
}

func scanVehicle(row scanner) (models.Vehicle, error) {
	var (
		v         models.Vehicle
		createdAt int64
	)
	if err := row.Scan(&v.ID, &v.Make, &v.Model, &v.Year, &v.VIN, &createdAt); err != nil {
		return v, err
	}
	v.CreatedAt = fromMillis(createdAt)
	return v, nil
}

func requireAffected(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return xerrors.NotFound(kind, id)
	}
	return nil
}

func mapSQLiteError(op string, err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%s: %w", op, xerrors.ErrConflict)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
