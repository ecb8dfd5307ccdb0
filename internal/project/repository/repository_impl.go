package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	projectdomain "github.com/operisapp/billing/internal/project/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() projectdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, project *projectdomain.Project) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO projects (
			id, name, contact_email, current_plan_id, start_date, billing_status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID,
		project.Name,
		project.ContactEmail,
		project.CurrentPlanID,
		project.StartDate,
		project.BillingStatus,
		project.CreatedAt,
		project.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*projectdomain.Project, error) {
	var project projectdomain.Project
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM projects WHERE id = ? LIMIT 1`, id).
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, f projectdomain.ListProjectFilter) ([]projectdomain.Project, error) {
	var projects []projectdomain.Project
	query := `SELECT * FROM projects WHERE 1=1`
	args := []any{}
	if f.BillingStatus != "" {
		query += ` AND billing_status = ?`
		args = append(args, f.BillingStatus)
	}
	if f.PlanID != nil {
		query += ` AND current_plan_id = ?`
		args = append(args, *f.PlanID)
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, f.Offset)
		}
	}
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *repo) UpdateEnrollment(ctx context.Context, db *gorm.DB, project *projectdomain.Project) error {
	return db.WithContext(ctx).Exec(
		`UPDATE projects
		SET current_plan_id = ?, start_date = ?, billing_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		project.CurrentPlanID,
		project.StartDate,
		project.BillingStatus,
		project.ID,
	).Error
}

func (r *repo) InsertHistory(ctx context.Context, db *gorm.DB, row *projectdomain.ProjectPlanHistory) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO project_plan_history (
			id, project_id, old_plan_id, new_plan_id, old_start_date, new_start_date, change_reason, changed_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID,
		row.ProjectID,
		row.OldPlanID,
		row.NewPlanID,
		row.OldStartDate,
		row.NewStartDate,
		row.ChangeReason,
		row.ChangedBy,
		row.CreatedAt,
	).Error
}

func (r *repo) FindHistoryByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]projectdomain.ProjectPlanHistory, error) {
	var rows []projectdomain.ProjectPlanHistory
	err := db.WithContext(ctx).
		Raw(`SELECT * FROM project_plan_history WHERE project_id = ? ORDER BY created_at DESC, id DESC`, projectID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
