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

const offerColumns = `id, full_name, email, languages, levels, class_types, modes, time_slots, max_students, current_students, version, created_at, updated_at`

// TeacherOfferRepository manages the pool of teachers and their capacity.
type TeacherOfferRepository struct {
	db *sqlx.DB
}

// NewTeacherOfferRepository constructs the repository.
func NewTeacherOfferRepository(db *sqlx.DB) *TeacherOfferRepository {
	return &TeacherOfferRepository{db: db}
}

// ListWithCapacity returns teachers who can still take a student, ordered by id.
func (r *TeacherOfferRepository) ListWithCapacity(ctx context.Context, filter models.OfferFilter) ([]models.TeacherOffer, int, error) {
	args := []interface{}{}
	conditions := []string{"current_students < max_students"}
	if filter.Language != "" {
		args = append(args, filter.Language)
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(languages)", len(args)))
	}
	if filter.Level != "" {
		args = append(args, filter.Level)
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(levels)", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM teacher_offers WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count teacher offers: %w", err)
	}

	_, size, offset := normalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM teacher_offers WHERE %s ORDER BY id ASC LIMIT %d OFFSET %d`,
		offerColumns, where, size, offset)

	var offers []models.TeacherOffer
	if err := r.db.SelectContext(ctx, &offers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teacher offers: %w", err)
	}
	return offers, total, nil
}

// ListAll returns every teacher offer regardless of capacity. Candidate
// evaluation needs full teachers too so they can be reported as excluded.
func (r *TeacherOfferRepository) ListAll(ctx context.Context) ([]models.TeacherOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM teacher_offers ORDER BY id ASC`
	var offers []models.TeacherOffer
	if err := r.db.SelectContext(ctx, &offers, query); err != nil {
		return nil, fmt.Errorf("list all teacher offers: %w", err)
	}
	return offers, nil
}

// FindByID returns one offer or sql.ErrNoRows.
func (r *TeacherOfferRepository) FindByID(ctx context.Context, id string) (*models.TeacherOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM teacher_offers WHERE id = $1`
	var offer models.TeacherOffer
	if err := r.db.GetContext(ctx, &offer, query, id); err != nil {
		return nil, err
	}
	return &offer, nil
}

// Create registers a new teacher offer with no students.
func (r *TeacherOfferRepository) Create(ctx context.Context, offer *models.TeacherOffer) error {
	if offer.ID == "" {
		offer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	offer.CreatedAt = now
	offer.UpdatedAt = now
	offer.CurrentStudents = 0
	offer.Version = 1

	const query = `INSERT INTO teacher_offers (` + offerColumns + `)
		VALUES (:id, :full_name, :email, :languages, :levels, :class_types, :modes, :time_slots, :max_students, :current_students, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, offer); err != nil {
		return fmt.Errorf("create teacher offer: %w", err)
	}
	return nil
}

// ReplaceSlots swaps the availability set and bumps the version so commits
// validated against the old slots are rejected.
func (r *TeacherOfferRepository) ReplaceSlots(ctx context.Context, id string, slots models.TimeSlots) error {
	const query = `UPDATE teacher_offers SET time_slots = $2, version = version + 1, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, slots, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("replace teacher slots: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check replaced teacher rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
