package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hasnin090/iq-sub001/internal/core"
)

const projectColumns = `id, name, balance, total_income, total_expenses, status, created_at`

// CreateProject registers a new project with a zero balance.
func (s *Store) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}
	if p.Status == "" {
		p.Status = core.ProjectActive
	}
	p.CreatedAt = time.Now().UTC()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO projects (name, balance, total_income, total_expenses, status, created_at)
			 VALUES (?, 0, 0, 0, ?, ?)`,
			p.Name, p.Status, p.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return core.ErrDuplicateName
			}
			return fmt.Errorf("insert project: %w", err)
		}
		p.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return core.Project{}, err
	}
	return p, nil
}

func (s *Store) GetProject(ctx context.Context, id int64) (core.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

func (s *Store) ListProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []core.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project. Deletion is blocked while any
// transaction still references it; archive instead.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var refs int64
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM transactions WHERE project_id = ?`, id).Scan(&refs); err != nil {
			return fmt.Errorf("count project transactions: %w", err)
		}
		if refs > 0 {
			return core.ErrProjectHasTransactions
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return core.ErrNotFound
		}
		return nil
	})
}

// ArchiveProject marks a project archived without touching its history.
func (s *Store) ArchiveProject(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE projects SET status = ? WHERE id = ?`, core.ProjectArchived, id)
		if err != nil {
			return fmt.Errorf("archive project: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return core.ErrNotFound
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (core.Project, error) {
	var p core.Project
	err := row.Scan(&p.ID, &p.Name, &p.Balance.Units, &p.TotalIncome.Units,
		&p.TotalExpenses.Units, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Project{}, core.ErrNotFound
	}
	if err != nil {
		return core.Project{}, fmt.Errorf("scan project: %w", err)
	}
	return p, nil
}

func getProjectTx(ctx context.Context, tx *sql.Tx, id int64) (core.Project, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}
