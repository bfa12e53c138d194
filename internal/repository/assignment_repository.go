package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

const uniqueViolation = "23505"

const assignmentDetailSelect = `SELECT a.id, a.teacher_id, a.student_id, a.student_name, a.student_email, a.class_type, a.mode,
       a.scheduled_slots, a.notes, a.created_by, a.created_at,
       t.full_name AS teacher_name, t.email AS teacher_email
FROM assignments a
JOIN teacher_offers t ON t.id = a.teacher_id`

// AssignmentRepository is the store gateway for committed assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Commit applies an assignment atomically: it locks the teacher row, checks
// the version and capacity the assignment was built against, retires the
// student's demand, increments the teacher's load and inserts the assignment.
// Either every effect is visible or none is.
func (r *AssignmentRepository) Commit(ctx context.Context, assignment *models.Assignment) (err error) {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var teacher struct {
		CurrentStudents int `db:"current_students"`
		MaxStudents     int `db:"max_students"`
		Version         int `db:"version"`
	}
	const lockQuery = `SELECT current_students, max_students, version FROM teacher_offers WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &teacher, lockQuery, assignment.TeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrTeacherNotFound
			return err
		}
		return fmt.Errorf("lock teacher offer: %w", err)
	}
	if teacher.Version != assignment.TeacherVersion {
		err = ErrTeacherVersionConflict
		return err
	}
	if teacher.CurrentStudents >= teacher.MaxStudents {
		err = ErrTeacherAtCapacity
		return err
	}

	const retireQuery = `DELETE FROM student_demands WHERE id = $1`
	result, err := tx.ExecContext(ctx, retireQuery, assignment.StudentID)
	if err != nil {
		return fmt.Errorf("retire student demand: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check retired demand rows: %w", err)
	}
	if affected == 0 {
		err = ErrDemandNotFound
		return err
	}

	const loadQuery = `UPDATE teacher_offers SET current_students = current_students + 1, version = version + 1, updated_at = $2 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, loadQuery, assignment.TeacherID, assignment.CreatedAt); err != nil {
		return fmt.Errorf("increment teacher load: %w", err)
	}

	const insertQuery = `INSERT INTO assignments (id, teacher_id, student_id, student_name, student_email, class_type, mode, scheduled_slots, notes, created_by, created_at)
		VALUES (:id, :teacher_id, :student_id, :student_name, :student_email, :class_type, :mode, :scheduled_slots, :notes, :created_by, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, assignment); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			err = ErrStudentAlreadyAssigned
			return err
		}
		return fmt.Errorf("insert assignment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment: %w", err)
	}
	assignment.TeacherVersion = teacher.Version + 1
	return nil
}

// FindByID returns one assignment with teacher details or sql.ErrNoRows.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.AssignmentDetail, error) {
	var detail models.AssignmentDetail
	if err := r.db.GetContext(ctx, &detail, assignmentDetailSelect+` WHERE a.id = $1`, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns assignments newest first.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("a.teacher_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM assignments a WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}

	_, size, offset := normalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY a.created_at DESC, a.id ASC LIMIT %d OFFSET %d`, assignmentDetailSelect, where, size, offset)

	var details []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}
	return details, total, nil
}
