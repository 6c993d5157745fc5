/*
Package sqlite provides a SQLite-backed implementation of the payroll
sources and stores.

PURPOSE:
  Implements every persistence interface the engine reads from
  (payroll.EmployeeSource, timeclock.EventSource, payroll.RateSource,
  payroll.LedgerStore) over a single SQLite database.

APPEND-ONLY ENFORCEMENT:
  - pay_rates: INSERT only; a rate change is a new row
  - payment_records: INSERT only; no UPDATE or DELETE statements exist
  - clock_events: the only table with UPDATE (operator corrections)

KEY TABLES:
  employees:       Directory (id, display name)
  clock_events:    Raw in/out punches, manually_edited marker
  pay_rates:       Rate history per employee
  payment_records: Payment Ledger

INDEXES:
  - idx_unique_payment_period: at most one record per (employee,
    arrangement, period start, period end). Legacy rows with a NULL
    arrangement are outside the index.
  - idx_clock_events_employee_ts: EventsInRange (hot path)
  - idx_payment_records_employee_start: PaymentsInRange

TIMESTAMPS:
  Instants are stored as fixed-width UTC text so string comparison in
  SQL matches time order. Calendar dates are stored as YYYY-MM-DD.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - payroll/ledger.go: LedgerStore contract
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/clock"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/timeclock"
)

// instantLayout is fixed-width so lexical order equals time order.
const instantLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ payroll.EmployeeSource = (*Store)(nil)
	_ payroll.RateSource     = (*Store)(nil)
	_ payroll.LedgerStore    = (*Store)(nil)
	_ timeclock.EventSource  = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection (used by the health endpoint).
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS clock_events (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		event_type TEXT NOT NULL CHECK (event_type IN ('in', 'out')),
		ts TEXT NOT NULL,
		manually_edited INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_clock_events_employee_ts
		ON clock_events(employee_id, ts);

	-- Rate history (append-only)
	CREATE TABLE IF NOT EXISTS pay_rates (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		rate TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		pay_schedule TEXT NOT NULL,
		tax_classification TEXT NOT NULL,
		effective_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pay_rates_employee
		ON pay_rates(employee_id, effective_date);

	-- Payment Ledger (append-only)
	CREATE TABLE IF NOT EXISTS payment_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		arrangement_id TEXT,
		pay_period_start TEXT NOT NULL,
		pay_period_end TEXT NOT NULL,
		hours_worked TEXT NOT NULL,
		hourly_rate TEXT NOT NULL,
		estimated_amount TEXT NOT NULL,
		gross_amount TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		check_number TEXT,
		notes TEXT,
		prepared_date TEXT NOT NULL
	);

	-- CRITICAL: one settlement per arrangement per period
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_payment_period
		ON payment_records(employee_id, arrangement_id, pay_period_start, pay_period_end)
		WHERE arrangement_id IS NOT NULL;

	CREATE INDEX IF NOT EXISTS idx_payment_records_employee_start
		ON payment_records(employee_id, pay_period_start);

	CREATE INDEX IF NOT EXISTS idx_payment_records_prepared
		ON payment_records(employee_id, prepared_date DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee inserts or renames an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, emp.ID, emp.Name, formatInstant(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var emp payroll.Employee
	err := s.db.QueryRowContext(ctx, "SELECT id, name FROM employees WHERE id = ?", id).
		Scan(&emp.ID, &emp.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Employee{}, fmt.Errorf("%w: %s", payroll.ErrEmployeeNotFound, id)
	}
	if err != nil {
		return payroll.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM employees ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []payroll.Employee
	for rows.Next() {
		var emp payroll.Employee
		if err := rows.Scan(&emp.ID, &emp.Name); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// =============================================================================
// CLOCK EVENTS (timeclock.EventSource)
// =============================================================================

// InsertEvent stores a raw punch. An empty ID is assigned.
func (s *Store) InsertEvent(ctx context.Context, ev timeclock.ClockEvent) (timeclock.ClockEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertEvent(ctx, ev)
}

func (s *Store) insertEvent(ctx context.Context, ev timeclock.ClockEvent) (timeclock.ClockEvent, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clock_events (id, employee_id, event_type, ts, manually_edited, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ev.ID, ev.EmployeeID, string(ev.Type), formatInstant(ev.Timestamp), ev.ManuallyEdited, formatInstant(time.Now()))
	if err != nil {
		return timeclock.ClockEvent{}, fmt.Errorf("failed to insert clock event: %w", err)
	}
	return ev, nil
}

func (s *Store) EventsInRange(ctx context.Context, employeeID string, from, to time.Time) ([]timeclock.ClockEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, event_type, ts, manually_edited
		FROM clock_events
		WHERE employee_id = ? AND ts >= ? AND ts < ?
		ORDER BY ts, id
	`, employeeID, formatInstant(from), formatInstant(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query clock events: %w", err)
	}
	defer rows.Close()

	var events []timeclock.ClockEvent
	for rows.Next() {
		var (
			ev  timeclock.ClockEvent
			typ string
			ts  string
		)
		if err := rows.Scan(&ev.ID, &ev.EmployeeID, &typ, &ts, &ev.ManuallyEdited); err != nil {
			return nil, fmt.Errorf("failed to scan clock event: %w", err)
		}
		if ev.Type, err = timeclock.ParseEventType(typ); err != nil {
			return nil, err
		}
		if ev.Timestamp, err = parseInstant(ts); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CreateEvent adds an operator-entered punch. It is marked edited.
func (s *Store) CreateEvent(ctx context.Context, employeeID string, typ timeclock.EventType, at time.Time) (timeclock.ClockEvent, error) {
	if _, err := s.GetEmployee(ctx, employeeID); err != nil {
		return timeclock.ClockEvent{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertEvent(ctx, timeclock.ClockEvent{
		EmployeeID:     employeeID,
		Type:           typ,
		Timestamp:      at,
		ManuallyEdited: true,
	})
}

// UpdateEvent moves a punch and marks it edited.
func (s *Store) UpdateEvent(ctx context.Context, eventID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE clock_events SET ts = ?, manually_edited = 1 WHERE id = ?",
		formatInstant(at), eventID,
	)
	if err != nil {
		return fmt.Errorf("failed to update clock event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", timeclock.ErrEventNotFound, eventID)
	}
	return nil
}

// =============================================================================
// PAY RATES (payroll.RateSource)
// =============================================================================

func (s *Store) AddRate(ctx context.Context, rate payroll.PayRateArrangement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pay_rates
		(id, employee_id, rate, payment_method, pay_schedule, tax_classification, effective_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rate.ID,
		rate.EmployeeID,
		rate.Rate.String(),
		string(rate.PaymentMethod),
		string(rate.PaySchedule),
		string(rate.TaxClassification),
		formatInstant(rate.EffectiveDate),
		formatInstant(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to add pay rate: %w", err)
	}
	return nil
}

func (s *Store) RatesFor(ctx context.Context, employeeID string) ([]payroll.PayRateArrangement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, rate, payment_method, pay_schedule, tax_classification, effective_date
		FROM pay_rates WHERE employee_id = ?
		ORDER BY effective_date, id
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pay rates: %w", err)
	}
	defer rows.Close()

	var rates []payroll.PayRateArrangement
	for rows.Next() {
		var (
			r                       payroll.PayRateArrangement
			rate, method, sched, tc string
			effective               string
		)
		if err := rows.Scan(&r.ID, &r.EmployeeID, &rate, &method, &sched, &tc, &effective); err != nil {
			return nil, fmt.Errorf("failed to scan pay rate: %w", err)
		}
		if r.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("pay rate %s: %w", r.ID, err)
		}
		r.PaymentMethod = payroll.PaymentMethod(method)
		r.PaySchedule = payroll.PaySchedule(sched)
		r.TaxClassification = payroll.TaxClassification(tc)
		if r.EffectiveDate, err = parseInstant(effective); err != nil {
			return nil, err
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

// =============================================================================
// PAYMENT LEDGER (payroll.LedgerStore)
// =============================================================================

func (s *Store) AppendPayment(ctx context.Context, rec payroll.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var arrangementID sql.NullString
	if rec.ArrangementID != nil {
		arrangementID = sql.NullString{String: *rec.ArrangementID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_records
		(id, employee_id, arrangement_id, pay_period_start, pay_period_end, hours_worked,
		 hourly_rate, estimated_amount, gross_amount, payment_method, check_number, notes, prepared_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.EmployeeID,
		arrangementID,
		rec.PayPeriodStart.String(),
		rec.PayPeriodEnd.String(),
		rec.HoursWorked.String(),
		rec.HourlyRate.String(),
		rec.EstimatedAmount.String(),
		rec.GrossAmount.String(),
		string(rec.PaymentMethod),
		nullString(rec.CheckNumber),
		nullString(rec.Notes),
		formatInstant(rec.PreparedDate),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return payroll.ErrDuplicatePayment
		}
		return fmt.Errorf("failed to append payment record: %w", err)
	}
	return nil
}

func (s *Store) HasPayment(ctx context.Context, employeeID, arrangementID string, start, end clock.Date) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM payment_records
		WHERE employee_id = ? AND arrangement_id = ? AND pay_period_start = ? AND pay_period_end = ?
	`, employeeID, arrangementID, start.String(), end.String()).Scan(&count)
	return count > 0, err
}

func (s *Store) PaymentsInRange(ctx context.Context, employeeID string, from, to clock.Date) ([]payroll.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPayments(ctx, `
		SELECT `+paymentColumns+` FROM payment_records
		WHERE employee_id = ? AND pay_period_start >= ? AND pay_period_start < ?
		ORDER BY prepared_date, id
	`, employeeID, from.String(), to.String())
}

func (s *Store) LatestPayment(ctx context.Context, employeeID string) (*payroll.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.queryPayments(ctx, `
		SELECT `+paymentColumns+` FROM payment_records
		WHERE employee_id = ?
		ORDER BY prepared_date DESC, rowid DESC
		LIMIT 1
	`, employeeID)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}

const paymentColumns = `id, employee_id, arrangement_id, pay_period_start, pay_period_end,
	hours_worked, hourly_rate, estimated_amount, gross_amount, payment_method,
	check_number, notes, prepared_date`

func (s *Store) queryPayments(ctx context.Context, query string, args ...any) ([]payroll.PaymentRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment records: %w", err)
	}
	defer rows.Close()

	var records []payroll.PaymentRecord
	for rows.Next() {
		rec, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanPayment(rows *sql.Rows) (payroll.PaymentRecord, error) {
	var (
		rec                           payroll.PaymentRecord
		arrangementID                 sql.NullString
		start, end                    string
		hours, rate, estimated, gross string
		method                        string
		checkNumber, notes            sql.NullString
		prepared                      string
	)

	err := rows.Scan(
		&rec.ID, &rec.EmployeeID, &arrangementID, &start, &end,
		&hours, &rate, &estimated, &gross, &method,
		&checkNumber, &notes, &prepared,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan payment record: %w", err)
	}

	if arrangementID.Valid {
		id := arrangementID.String
		rec.ArrangementID = &id
	}
	if rec.PayPeriodStart, err = clock.ParseDate(start); err != nil {
		return rec, err
	}
	if rec.PayPeriodEnd, err = clock.ParseDate(end); err != nil {
		return rec, err
	}
	amounts := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&rec.HoursWorked, hours},
		{&rec.HourlyRate, rate},
		{&rec.EstimatedAmount, estimated},
		{&rec.GrossAmount, gross},
	}
	for _, a := range amounts {
		if *a.dst, err = decimal.NewFromString(a.src); err != nil {
			return rec, fmt.Errorf("payment record %s: %w", rec.ID, err)
		}
	}
	rec.PaymentMethod = payroll.PaymentMethod(method)
	rec.CheckNumber = checkNumber.String
	rec.Notes = notes.String
	if rec.PreparedDate, err = parseInstant(prepared); err != nil {
		return rec, err
	}
	return rec, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"payment_records", "pay_rates", "clock_events", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func formatInstant(t time.Time) string {
	return t.UTC().Format(instantLayout)
}

func parseInstant(s string) (time.Time, error) {
	t, err := time.Parse(instantLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored instant %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
