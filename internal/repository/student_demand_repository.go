package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

const demandColumns = `id, full_name, email, language, level, preferred_class_type, preferred_mode, time_slots, created_at, updated_at`

// StudentDemandRepository manages the pool of students waiting for a teacher.
type StudentDemandRepository struct {
	db *sqlx.DB
}

// NewStudentDemandRepository constructs the repository.
func NewStudentDemandRepository(db *sqlx.DB) *StudentDemandRepository {
	return &StudentDemandRepository{db: db}
}

// List returns unassigned students, oldest first.
func (r *StudentDemandRepository) List(ctx context.Context, filter models.DemandFilter) ([]models.StudentDemand, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}
	if filter.Language != "" {
		args = append(args, filter.Language)
		conditions = append(conditions, fmt.Sprintf("language = $%d", len(args)))
	}
	if filter.Level != "" {
		args = append(args, filter.Level)
		conditions = append(conditions, fmt.Sprintf("level = $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM student_demands WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count student demands: %w", err)
	}

	_, size, offset := normalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM student_demands WHERE %s ORDER BY created_at ASC, id ASC LIMIT %d OFFSET %d`,
		demandColumns, where, size, offset)

	var demands []models.StudentDemand
	if err := r.db.SelectContext(ctx, &demands, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list student demands: %w", err)
	}
	return demands, total, nil
}

// FindByID returns one demand or sql.ErrNoRows.
func (r *StudentDemandRepository) FindByID(ctx context.Context, id string) (*models.StudentDemand, error) {
	query := `SELECT ` + demandColumns + ` FROM student_demands WHERE id = $1`
	var demand models.StudentDemand
	if err := r.db.GetContext(ctx, &demand, query, id); err != nil {
		return nil, err
	}
	return &demand, nil
}

// Create registers a new demand.
func (r *StudentDemandRepository) Create(ctx context.Context, demand *models.StudentDemand) error {
	if demand.ID == "" {
		demand.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	demand.CreatedAt = now
	demand.UpdatedAt = now

	const query = `INSERT INTO student_demands (` + demandColumns + `)
		VALUES (:id, :full_name, :email, :language, :level, :preferred_class_type, :preferred_mode, :time_slots, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, demand); err != nil {
		return fmt.Errorf("create student demand: %w", err)
	}
	return nil
}

// ReplaceSlots swaps the whole availability set of a demand.
func (r *StudentDemandRepository) ReplaceSlots(ctx context.Context, id string, slots models.TimeSlots) error {
	const query = `UPDATE student_demands SET time_slots = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, slots, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("replace student slots: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check replaced student rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
