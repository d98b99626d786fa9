package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/taskhub/internal/domain/project"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const projectColumns = `id, title, description, user_id, created_at, updated_at`

type ProjectsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewProjectsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProjectsRepo {
	return &ProjectsRepo{pool: pool, prom: prom}
}

func (r *ProjectsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanProject(row pgx.Row, p *project.Project) error {
	return row.Scan(&p.ID, &p.Title, &p.Description, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProjectsRepo) Create(ctx context.Context, p project.Project) (project.Project, error) {
	err := r.observe("projects.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO projects(id, title, description, user_id, created_at, updated_at) VALUES($1,$2,$3,$4,$5,$6)`,
			p.ID, p.Title, p.Description, p.UserID, p.CreatedAt, p.UpdatedAt)
		return err
	})
	if err != nil {
		return project.Project{}, err
	}
	return p, nil
}

func (r *ProjectsRepo) GetByID(ctx context.Context, id string) (project.Project, error) {
	var p project.Project

	err := r.observe("projects.get_by_id", func() error {
		return scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id), &p)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, err
	}
	return p, nil
}

func (r *ProjectsRepo) ListByUser(ctx context.Context, userID string) ([]project.Project, error) {
	return r.list(ctx, "projects.list_by_user",
		`SELECT `+projectColumns+` FROM projects WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

func (r *ProjectsRepo) RecentByUser(ctx context.Context, userID string, limit int) ([]project.Project, error) {
	return r.list(ctx, "projects.recent_by_user",
		`SELECT `+projectColumns+` FROM projects WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, userID, limit)
}

func (r *ProjectsRepo) list(ctx context.Context, op, query string, args ...any) ([]project.Project, error) {
	var rows pgx.Rows

	err := r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, query, args...)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]project.Project, 0)
	for rows.Next() {
		var p project.Project
		if err := scanProject(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func (r *ProjectsRepo) Update(ctx context.Context, p project.Project) (project.Project, error) {
	var out project.Project

	err := r.observe("projects.update", func() error {
		return scanProject(r.pool.QueryRow(ctx, `
		UPDATE projects
		SET title = $2,
		    description = $3,
		    updated_at = $4
		WHERE id = $1
		RETURNING `+projectColumns,
			p.ID, p.Title, p.Description, p.UpdatedAt), &out)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, err
	}
	return out, nil
}

// DeleteCascade removes the tasks of the project and then the project in one transaction.
func (r *ProjectsRepo) DeleteCascade(ctx context.Context, id string) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	err = r.observe("projects.delete_cascade.tasks", func() error {
		_, e := tx.Exec(ctx, `DELETE FROM tasks WHERE project_id = $1`, id)
		return e
	})
	if err != nil {
		return err
	}

	var affected int64
	err = r.observe("projects.delete_cascade.project", func() error {
		tag, e := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		err = project.ErrNotFound
		return err
	}

	return tx.Commit(ctx)
}

func (r *ProjectsRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.observe("projects.count_by_user", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects WHERE user_id = $1`, userID).Scan(&n)
	})
	return n, err
}

// Ping backs the readiness probe.
func (r *ProjectsRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
