package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/dto"
	"github.com/noah-isme/tutor-match-api/internal/matching"
	"github.com/noah-isme/tutor-match-api/internal/models"
	"github.com/noah-isme/tutor-match-api/internal/repository"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

const candidateKeyPrefix = "matching:candidates"

type studentDemandStore interface {
	List(ctx context.Context, filter models.DemandFilter) ([]models.StudentDemand, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDemand, error)
	Create(ctx context.Context, demand *models.StudentDemand) error
	ReplaceSlots(ctx context.Context, id string, slots models.TimeSlots) error
}

type teacherOfferStore interface {
	ListWithCapacity(ctx context.Context, filter models.OfferFilter) ([]models.TeacherOffer, int, error)
	ListAll(ctx context.Context) ([]models.TeacherOffer, error)
	FindByID(ctx context.Context, id string) (*models.TeacherOffer, error)
	Create(ctx context.Context, offer *models.TeacherOffer) error
	ReplaceSlots(ctx context.Context, id string, slots models.TimeSlots) error
}

type assignmentStore interface {
	assignmentReader
	Commit(ctx context.Context, assignment *models.Assignment) error
}

type assignmentNotifier interface {
	NotifyCommitted(ctx context.Context, detail models.AssignmentDetail) error
}

// MatchingConfig tunes candidate listing.
type MatchingConfig struct {
	MaxCandidates int
	CacheTTL      time.Duration
}

// MatchingService ranks teachers for students and commits operator-confirmed assignments.
type MatchingService struct {
	students    studentDemandStore
	teachers    teacherOfferStore
	assignments assignmentStore
	cache       *CacheService
	notifier    assignmentNotifier
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         MatchingConfig
	now         func() time.Time
}

// NewMatchingService creates a service instance.
func NewMatchingService(
	students studentDemandStore,
	teachers teacherOfferStore,
	assignments assignmentStore,
	cache *CacheService,
	notifier assignmentNotifier,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg MatchingConfig,
) *MatchingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 50
	}
	registerSlotValidators(validate)
	return &MatchingService{
		students:    students,
		teachers:    teachers,
		assignments: assignments,
		cache:       cache,
		notifier:    notifier,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

func registerSlotValidators(v *validator.Validate) {
	mustRegister(v, "weekday", func(fl validator.FieldLevel) bool {
		_, err := models.ParseDayOfWeek(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "clock", func(fl validator.FieldLevel) bool {
		_, err := models.ParseClockTime(fl.Field().String())
		return err == nil
	})
}

// mustRegister panics on a bad tag: the DTO tags would otherwise silently stop validating.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

func pagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

// ListUnassignedStudents returns the waiting student pool.
func (s *MatchingService) ListUnassignedStudents(ctx context.Context, filter models.DemandFilter) ([]models.StudentDemand, *models.Pagination, error) {
	filter.Language = normalizeTag(filter.Language)
	filter.Level = normalizeTag(filter.Level)
	demands, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return demands, pagination(filter.Page, filter.PageSize, total), nil
}

// ListTeachersWithCapacity returns teachers who can take another student.
func (s *MatchingService) ListTeachersWithCapacity(ctx context.Context, filter models.OfferFilter) ([]models.TeacherOffer, *models.Pagination, error) {
	filter.Language = normalizeTag(filter.Language)
	filter.Level = normalizeTag(filter.Level)
	offers, total, err := s.teachers.ListWithCapacity(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return offers, pagination(filter.Page, filter.PageSize, total), nil
}

// CreateStudentDemand adds a student to the waiting pool.
func (s *MatchingService) CreateStudentDemand(ctx context.Context, req dto.CreateStudentDemandRequest) (*models.StudentDemand, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	slots, err := parseSlots(req.TimeSlots)
	if err != nil {
		return nil, err
	}
	classType, err := models.ParsePreference[models.ClassType](req.PreferredClassType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preferred class type")
	}
	mode, err := models.ParsePreference[models.Mode](req.PreferredMode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preferred mode")
	}

	demand := &models.StudentDemand{
		FullName:           strings.TrimSpace(req.FullName),
		Email:              req.Email,
		Language:           normalizeTag(req.Language),
		Level:              normalizeTag(req.Level),
		PreferredClassType: classType,
		PreferredMode:      mode,
		TimeSlots:          slots,
	}
	if err := s.students.Create(ctx, demand); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student demand registered", zap.String("student_id", demand.ID))
	return demand, nil
}

// CreateTeacherOffer adds a teacher to the pool. Every cached candidate list
// is dropped since the new teacher may rank for anyone.
func (s *MatchingService) CreateTeacherOffer(ctx context.Context, req dto.CreateTeacherOfferRequest) (*models.TeacherOffer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	slots, err := parseSlots(req.TimeSlots)
	if err != nil {
		return nil, err
	}

	offer := &models.TeacherOffer{
		FullName:    strings.TrimSpace(req.FullName),
		Email:       req.Email,
		Languages:   normalizeTags(req.Languages),
		Levels:      normalizeTags(req.Levels),
		ClassTypes:  choiceList[models.ClassType](req.ClassTypes),
		Modes:       choiceList[models.Mode](req.Modes),
		TimeSlots:   slots,
		MaxStudents: req.MaxStudents,
	}
	if err := s.teachers.Create(ctx, offer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	s.cache.Invalidate(ctx, CacheKey(candidateKeyPrefix, "*"))
	s.logger.Info("teacher offer registered", zap.String("teacher_id", offer.ID), zap.Int("max_students", offer.MaxStudents))
	return offer, nil
}

// Candidates ranks every eligible teacher for a student and explains why the
// others were excluded. The bool result reports a cache hit.
func (s *MatchingService) Candidates(ctx context.Context, studentID string) (*dto.CandidateListResponse, bool, error) {
	key := CacheKey(candidateKeyPrefix, studentID)
	var cached dto.CandidateListResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	student, err := s.findStudent(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	pool, err := s.teachers.ListAll(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}

	start := time.Now()
	eligible := make([]models.TeacherOffer, 0, len(pool))
	excluded := make([]dto.ExcludedTeacher, 0)
	for _, teacher := range pool {
		if rejections := matching.Evaluate(*student, teacher); len(rejections) > 0 {
			excluded = append(excluded, dto.ExcludedTeacher{TeacherID: teacher.ID, FullName: teacher.FullName, Rejections: rejections})
			continue
		}
		eligible = append(eligible, teacher)
	}

	ranked := matching.Rank(*student, eligible)
	if len(ranked) > s.cfg.MaxCandidates {
		ranked = ranked[:s.cfg.MaxCandidates]
	}
	s.metrics.ObserveCandidates(len(eligible), time.Since(start))

	resp := &dto.CandidateListResponse{
		Student:     *student,
		Candidates:  ranked,
		Excluded:    excluded,
		GeneratedAt: s.now().UTC(),
	}
	if len(eligible) == 0 {
		resp.Reason = appErrors.ErrNoEligibleTeachers.Code
		resp.Message = appErrors.ErrNoEligibleTeachers.Message
	}

	s.cache.Set(ctx, key, resp, s.cfg.CacheTTL)
	return resp, false, nil
}

// ReplaceStudentAvailability swaps a student's whole slot set.
func (s *MatchingService) ReplaceStudentAvailability(ctx context.Context, studentID string, req dto.ReplaceAvailabilityRequest) (*models.StudentDemand, error) {
	slots, err := s.availability(req)
	if err != nil {
		return nil, err
	}
	if err := s.students.ReplaceSlots(ctx, studentID, slots); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found or already assigned")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student availability")
	}
	s.cache.Invalidate(ctx, CacheKey(candidateKeyPrefix, studentID))
	return s.findStudent(ctx, studentID)
}

// ReplaceTeacherAvailability swaps a teacher's whole slot set.
func (s *MatchingService) ReplaceTeacherAvailability(ctx context.Context, teacherID string, req dto.ReplaceAvailabilityRequest) (*models.TeacherOffer, error) {
	slots, err := s.availability(req)
	if err != nil {
		return nil, err
	}
	if err := s.teachers.ReplaceSlots(ctx, teacherID, slots); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher availability")
	}
	s.cache.Invalidate(ctx, CacheKey(candidateKeyPrefix, "*"))
	return s.findTeacher(ctx, teacherID)
}

func (s *MatchingService) availability(req dto.ReplaceAvailabilityRequest) (models.TimeSlots, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidSlot.Code, appErrors.ErrInvalidSlot.Status, "invalid availability payload")
	}
	return parseSlots(req.TimeSlots)
}

// Assign validates an operator's pairing against fresh pool data and commits it.
func (s *MatchingService) Assign(ctx context.Context, operatorID string, req dto.CreateAssignmentRequest) (*models.AssignmentDetail, error) {
	detail, err := s.assign(ctx, operatorID, req)
	s.metrics.RecordCommit(commitOutcome(err))
	if err != nil {
		s.logger.Info("assignment rejected",
			zap.String("student_id", req.StudentID),
			zap.String("teacher_id", req.TeacherID),
			zap.String("operator_id", operatorID),
			zap.String("code", appErrors.FromError(err).Code),
		)
		return nil, err
	}

	s.logger.Info("assignment committed",
		zap.String("assignment_id", detail.ID),
		zap.String("student_id", detail.StudentID),
		zap.String("teacher_id", detail.TeacherID),
		zap.String("operator_id", operatorID),
		zap.Int("slots", len(detail.ScheduledSlots)),
	)
	if s.notifier != nil {
		if err := s.notifier.NotifyCommitted(ctx, *detail); err != nil {
			s.logger.Warn("assignment notification not scheduled", zap.String("assignment_id", detail.ID), zap.Error(err))
		}
	}
	return detail, nil
}

func (s *MatchingService) assign(ctx context.Context, operatorID string, req dto.CreateAssignmentRequest) (*models.AssignmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidAssignment.Code, appErrors.ErrInvalidAssignment.Status, "invalid assignment payload")
	}
	selected, err := parseSlots(req.TimeSlots)
	if err != nil {
		return nil, err
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.missingStudent(ctx, req.StudentID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	teacher, err := s.findTeacher(ctx, req.TeacherID)
	if err != nil {
		return nil, err
	}

	assignment, err := matching.BuildAssignment(matching.AssignmentInput{
		Student:       *student,
		Teacher:       *teacher,
		ClassType:     models.ClassType(strings.ToLower(strings.TrimSpace(req.ClassType))),
		Mode:          models.Mode(strings.ToLower(strings.TrimSpace(req.Mode))),
		SelectedSlots: selected,
		Notes:         req.Notes,
		CreatedBy:     operatorID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.assignments.Commit(ctx, &assignment); err != nil {
		return nil, mapCommitError(err)
	}
	s.cache.Invalidate(ctx, CacheKey(candidateKeyPrefix, "*"))

	return &models.AssignmentDetail{
		Assignment:   assignment,
		TeacherName:  teacher.FullName,
		TeacherEmail: teacher.Email,
	}, nil
}

// missingStudent tells a retired demand apart from an unknown student.
func (s *MatchingService) missingStudent(ctx context.Context, studentID string) error {
	existing, total, err := s.assignments.List(ctx, models.AssignmentFilter{StudentID: studentID, PageSize: 1})
	if err == nil && total > 0 && len(existing) > 0 {
		return appErrors.Clone(appErrors.ErrStudentAlreadyAssigned, "")
	}
	return appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

func mapCommitError(err error) error {
	switch {
	case errors.Is(err, repository.ErrTeacherVersionConflict):
		return appErrors.Clone(appErrors.ErrStaleTeacherState, "")
	case errors.Is(err, repository.ErrTeacherAtCapacity):
		return appErrors.Clone(appErrors.ErrCapacityExceeded, "")
	case errors.Is(err, repository.ErrDemandNotFound), errors.Is(err, repository.ErrStudentAlreadyAssigned):
		return appErrors.Clone(appErrors.ErrStudentAlreadyAssigned, "")
	case errors.Is(err, repository.ErrTeacherNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit assignment")
	}
}

func commitOutcome(err error) string {
	if err == nil {
		return OutcomeCommitted
	}
	switch appErrors.FromError(err).Code {
	case appErrors.ErrStaleSlotSelection.Code:
		return OutcomeStaleSelection
	case appErrors.ErrStaleTeacherState.Code:
		return OutcomeStaleTeacher
	case appErrors.ErrCapacityExceeded.Code:
		return OutcomeCapacity
	case appErrors.ErrNoOverlappingSlots.Code:
		return OutcomeNoOverlap
	case appErrors.ErrStudentAlreadyAssigned.Code:
		return OutcomeAlreadyAssigned
	case appErrors.ErrInvalidAssignment.Code, appErrors.ErrInvalidSlot.Code, appErrors.ErrNotFound.Code:
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

// ListAssignments returns committed assignments.
func (s *MatchingService) ListAssignments(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, *models.Pagination, error) {
	items, total, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return items, pagination(filter.Page, filter.PageSize, total), nil
}

// GetAssignment returns one assignment.
func (s *MatchingService) GetAssignment(ctx context.Context, id string) (*models.AssignmentDetail, error) {
	detail, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return detail, nil
}

func (s *MatchingService) findStudent(ctx context.Context, id string) (*models.StudentDemand, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found or already assigned")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *MatchingService) findTeacher(ctx context.Context, id string) (*models.TeacherOffer, error) {
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

func parseSlots(payload []dto.TimeSlotPayload) (models.TimeSlots, error) {
	slots := make(models.TimeSlots, 0, len(payload))
	seen := make(map[models.TimeSlot]struct{}, len(payload))
	for _, p := range payload {
		slot, err := models.ParseTimeSlot(p.Day, p.StartTime, p.EndTime)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[slot]; dup {
			continue
		}
		seen[slot] = struct{}{}
		slots = append(slots, slot)
	}
	return slots, nil
}

func choiceList[T models.Choice](raw []string) models.ChoiceList[T] {
	out := make(models.ChoiceList[T], 0, len(raw))
	for _, v := range raw {
		c := T(strings.ToLower(strings.TrimSpace(v)))
		if !out.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

func normalizeTag(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func normalizeTags(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		tag := normalizeTag(v)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
