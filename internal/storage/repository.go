package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	sq "github.com/Masterminds/squirrel"

	"expenses/internal/core"

	_ "modernc.org/sqlite"
)

const (
	driverName = "sqlite"
	table      = "expenses"
)

var columns = []string{"id", "date", "amount", "category", "note"}

// SQLiteRepository is the SQLite-backed Store. Every operation checks out
// its own connection and returns it before the call completes; writes run
// in a transaction per call.
type SQLiteRepository struct {
	db *sql.DB
	// serialises writers sharing this handle; concurrent processes
	// resolve through SQLite's busy timeout, last writer wins.
	writeMu sync.Mutex
	logger  *slog.Logger
}

var _ Store = (*SQLiteRepository)(nil)

// DSN builds the modernc connection string for path.
func DSN(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	if err := RunMigrations(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: slog.Default().With("component", "storage"),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.withConn(ctx, func(conn *sql.Conn) error {
		return conn.PingContext(ctx)
	})
}

// withConn scopes one pooled connection to fn and always releases it.
func (r *SQLiteRepository) withConn(ctx context.Context, fn func(*sql.Conn) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}

// withTx runs fn inside a transaction on a scoped connection. The
// transaction is rolled back unless fn succeeds and the commit lands.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	return r.withConn(ctx, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) Add(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := sq.Insert(table).
			Columns("date", "amount", "category", "note").
			Values(e.Date.String(), e.Amount.String(), e.Category, e.Note).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read inserted id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.InfoContext(ctx, "Expense added",
		"id", id,
		"date", e.Date.String(),
		"amount", e.Amount.String(),
		"category", e.Category)
	return id, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, e core.Expense) error {
	if err := core.ValidateID(e.ID); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := sq.Update(table).
			Set("date", e.Date.String()).
			Set("amount", e.Amount.String()).
			Set("category", e.Category).
			Set("note", e.Note).
			Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
			Where(sq.Eq{"id": e.ID}).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("update expense %d: %w", e.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update expense %d: %w", e.ID, err)
		}
		if n == 0 {
			return &core.NotFoundError{ID: e.ID}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Expense updated", "id", e.ID, "date", e.Date.String())
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	if err := core.ValidateID(id); err != nil {
		return err
	}

	var n int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := sq.Delete(table).
			Where(sq.Eq{"id": id}).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("delete expense %d: %w", id, err)
		}
		n = r.deletedRows(ctx, id, res)
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Expense deleted", "id", id, "rows", n)
	return nil
}

// deletedRows reports how many rows a delete removed, -1 when the driver
// cannot tell. The delete itself has already succeeded.
func (r *SQLiteRepository) deletedRows(ctx context.Context, id int64, res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		r.logger.WarnContext(ctx, "Rows affected unavailable after delete", "id", id, "error", err)
		return -1
	}
	return n
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Expense, error) {
	query, args, err := sq.Select(columns...).
		From(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return core.Expense{}, fmt.Errorf("build query: %w", err)
	}

	var e core.Expense
	err = r.withConn(ctx, func(conn *sql.Conn) error {
		row := conn.QueryRowContext(ctx, query, args...)
		var scanErr error
		e, scanErr = scanExpense(row)
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, &core.NotFoundError{ID: id}
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// ListByMonth returns the records dated in [first of m, first of next month).
func (r *SQLiteRepository) ListByMonth(ctx context.Context, m core.Month) ([]core.Expense, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	from, to := m.Range()
	return r.list(ctx, sq.And{
		sq.GtOrEq{"date": from.String()},
		sq.Lt{"date": to.String()},
	})
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Expense, error) {
	return r.list(ctx, nil)
}

func (r *SQLiteRepository) list(ctx context.Context, where sq.Sqlizer) ([]core.Expense, error) {
	b := sq.Select(columns...).From(table).OrderBy("date DESC", "id DESC")
	if where != nil {
		b = b.Where(where)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	out := []core.Expense{}
	err = r.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanExpense(rows)
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e            core.Expense
		date, amount string
	)
	if err := s.Scan(&e.ID, &date, &amount, &e.Category, &e.Note); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("row %d: %w", e.ID, err)
	}
	m, err := core.ParseMoney(amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("row %d: %w", e.ID, err)
	}
	e.Date = d
	e.Amount = m
	return e, nil
}
