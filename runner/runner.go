package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rafisarkar/ddlphase/logger"
)

// Tx is the slice of a database transaction the applier needs.
type Tx interface {
	Exec(ctx context.Context, sql string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Beginner opens a transaction scope on the target database.
type Beginner interface {
	Begin(ctx context.Context) (Tx, error)
}

// ExecutionError carries the statement that failed, its position in the
// sequence, and the database-reported cause. The transaction was rolled
// back before this error is returned; on targets without transactional DDL
// earlier statements may still have taken effect.
type ExecutionError struct {
	Index     int
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing statement %d %q: %v", e.Index, e.Statement, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Applier executes ordered DDL statement lists, one transaction per call.
type Applier struct {
	db  Beginner
	log *logger.Logger
}

func NewApplier(db Beginner, log *logger.Logger) *Applier {
	return &Applier{db: db, log: log}
}

// ApplyDDL runs every statement in order inside a single transaction.
// Whitespace-only statements are skipped. On the first failure the
// transaction is rolled back and an *ExecutionError is returned; no later
// statement is attempted. On success everything is committed.
func (a *Applier) ApplyDDL(ctx context.Context, stmts []string) error {
	tx, err := a.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	for i, stmt := range stmts {
		if strings.TrimSpace(stmt) == "" {
			continue
		}

		a.log.Infof("executing DDL: %s", statementPrefix(stmt))
		if err := tx.Exec(ctx, stmt); err != nil {
			a.log.Errorf("DDL failed: %s: %v", statementPrefix(stmt), err)
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				a.log.Warnf("rollback failed: %v", rbErr)
			}
			return &ExecutionError{Index: i, Statement: stmt, Err: err}
		}
		a.log.Infof("DDL succeeded: %s", statementPrefix(stmt))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// statementPrefix keeps log lines short; full text travels in the error.
func statementPrefix(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if len(stmt) <= 50 {
		return stmt
	}
	return stmt[:50] + "..."
}

// PoolBeginner adapts a pgx pool to the Beginner seam.
type PoolBeginner struct {
	Pool *pgxpool.Pool
}

func (p PoolBeginner) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return pgxTx{tx: tx}, nil
}

type pgxTx struct {
	tx pgx.Tx
}

func (t pgxTx) Exec(ctx context.Context, sql string) error {
	_, err := t.tx.Exec(ctx, sql)
	return err
}

func (t pgxTx) Commit(ctx context.Context) error { return t.tx.Commit(ctx) }

func (t pgxTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
