package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `t.id, t.title, t.description, t.status, t.priority, t.due_date,
	t.user_id, t.project_id, t.assigned_to, t.created_at, t.updated_at`

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{pool: pool, prom: prom}
}

func (r *TasksRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func taskDest(t *task.Task, status, priority *string) []any {
	return []any{
		&t.ID, &t.Title, &t.Description, status, priority, &t.DueDate,
		&t.UserID, &t.ProjectID, &t.AssignedTo, &t.CreatedAt, &t.UpdatedAt,
	}
}

func scanTask(row pgx.Row, t *task.Task) error {
	var status, priority string
	if err := row.Scan(taskDest(t, &status, &priority)...); err != nil {
		return err
	}
	t.Status = task.Status(status)
	t.Priority = task.Priority(priority)
	return nil
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	err := r.observe("tasks.create", func() error {
		_, err := r.pool.Exec(ctx, `INSERT INTO tasks(
			id, title, description, status, priority, due_date,
			user_id, project_id, assigned_to, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.DueDate,
			t.UserID, t.ProjectID, t.AssignedTo, t.CreatedAt, t.UpdatedAt)
		return err
	})
	if err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, id string) (task.Task, error) {
	var t task.Task

	err := r.observe("tasks.get_by_id", func() error {
		return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1`, id), &t)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}
	return t, nil
}

// ListByUser joins the project title onto each task created by userID.
func (r *TasksRepo) ListByUser(ctx context.Context, userID string) ([]task.WithProject, error) {
	var rows pgx.Rows

	err := r.observe("tasks.list_by_user", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, `
		SELECT `+taskColumns+`, p.title
		FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE t.user_id = $1
		ORDER BY t.created_at DESC, t.id DESC`, userID)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]task.WithProject, 0)
	for rows.Next() {
		var (
			wp               task.WithProject
			status, priority string
		)
		dest := append(taskDest(&wp.Task, &status, &priority), &wp.Project.Title)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		wp.Status = task.Status(status)
		wp.Priority = task.Priority(priority)
		wp.Project.ID = wp.ProjectID
		out = append(out, wp)
	}

	return out, rows.Err()
}

func (r *TasksRepo) ListByProject(ctx context.Context, projectID string) ([]task.Task, error) {
	var rows pgx.Rows

	err := r.observe("tasks.list_by_project", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.project_id = $1 ORDER BY t.created_at DESC, t.id DESC`, projectID)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]task.Task, 0)
	for rows.Next() {
		var t task.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	return out, rows.Err()
}

func (r *TasksRepo) Update(ctx context.Context, t task.Task) (task.Task, error) {
	var out task.Task

	err := r.observe("tasks.update", func() error {
		return scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks t
		SET title = $2,
		    description = $3,
		    status = $4,
		    priority = $5,
		    due_date = $6,
		    project_id = $7,
		    assigned_to = $8,
		    updated_at = $9
		WHERE t.id = $1
		RETURNING `+taskColumns,
			t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.DueDate,
			t.ProjectID, t.AssignedTo, t.UpdatedAt), &out)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}
	return out, nil
}

func (r *TasksRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("tasks.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return task.ErrNotFound
	}
	return nil
}

func (r *TasksRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.observe("tasks.count_by_user", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE user_id = $1`, userID).Scan(&n)
	})
	return n, err
}

func (r *TasksRepo) CountByStatus(ctx context.Context, userID string) (map[task.Status]int, error) {
	raw, err := r.groupCount(ctx, "tasks.count_by_status",
		`SELECT status, COUNT(*) FROM tasks WHERE user_id = $1 GROUP BY status`, userID)
	if err != nil {
		return nil, err
	}

	out := make(map[task.Status]int, len(raw))
	for k, v := range raw {
		out[task.Status(k)] = v
	}
	return out, nil
}

func (r *TasksRepo) CountByPriority(ctx context.Context, userID string) (map[task.Priority]int, error) {
	raw, err := r.groupCount(ctx, "tasks.count_by_priority",
		`SELECT priority, COUNT(*) FROM tasks WHERE user_id = $1 GROUP BY priority`, userID)
	if err != nil {
		return nil, err
	}

	out := make(map[task.Priority]int, len(raw))
	for k, v := range raw {
		out[task.Priority(k)] = v
	}
	return out, nil
}

func (r *TasksRepo) groupCount(ctx context.Context, op, query, userID string) (map[string]int, error) {
	var rows pgx.Rows

	err := r.observe(op, func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, query, userID)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}
