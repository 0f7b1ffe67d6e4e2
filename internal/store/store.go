// Package store persists courses, lectures and generated questions in
// SQLite through GORM.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/alnah/go-lecturequiz/internal/quiz"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const defaultSlowQuery = 200 * time.Millisecond

// Config configures the database.
type Config struct {
	Path      string // SQLite file, or MemoryPath
	LogLevel  string // silent, error, warn, info
	SlowQuery time.Duration
}

// Store is the lecture data store.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the database at cfg.Path and migrates
// the schema.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	if cfg.Path == "" {
		cfg.Path = MemoryPath
	}
	if cfg.SlowQuery <= 0 {
		cfg.SlowQuery = defaultSlowQuery
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: newGormLogger(log, cfg.SlowQuery, parseLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Path, err)
	}
	// SQLite allows one writer; an in-memory database also lives in a
	// single connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.WithContext(ctx).AutoMigrate(&Course{}, &Lecture{}, &Question{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	log.Debug().Str("path", cfg.Path).Msg("database ready")
	return &Store{db: db, log: log}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateCourse stores a new course.
func (s *Store) CreateCourse(ctx context.Context, name, description string) (*Course, error) {
	c := &Course{Name: name, Description: description}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return c, nil
}

// Course returns the course with id.
func (s *Store) Course(ctx context.Context, id uint) (*Course, error) {
	var c Course
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, "course", id)
	}
	return &c, nil
}

// CreateLecture stores a new lecture in an existing course.
func (s *Store) CreateLecture(ctx context.Context, courseID uint, title, audioRef string) (*Lecture, error) {
	if _, err := s.Course(ctx, courseID); err != nil {
		return nil, err
	}
	l := &Lecture{CourseID: courseID, Title: title, AudioRef: audioRef}
	if err := s.db.WithContext(ctx).Create(l).Error; err != nil {
		return nil, fmt.Errorf("create lecture: %w", err)
	}
	return l, nil
}

// Lecture returns the lecture with id.
func (s *Store) Lecture(ctx context.Context, id uint) (*Lecture, error) {
	var l Lecture
	if err := s.db.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, notFound(err, "lecture", id)
	}
	return &l, nil
}

// ListLectures returns lectures ordered by id, limited to courseID unless it is 0.
func (s *Store) ListLectures(ctx context.Context, courseID uint) ([]Lecture, error) {
	q := s.db.WithContext(ctx).Order("id")
	if courseID != 0 {
		q = q.Where("course_id = ?", courseID)
	}
	var out []Lecture
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list lectures: %w", err)
	}
	return out, nil
}

// SaveTranscript replaces the lecture's transcript.
func (s *Store) SaveTranscript(ctx context.Context, lectureID uint, transcript string) error {
	return s.updateLecture(ctx, lectureID, "transcript", transcript)
}

// SaveSummary replaces the lecture's summary.
func (s *Store) SaveSummary(ctx context.Context, lectureID uint, summary string) error {
	return s.updateLecture(ctx, lectureID, "summary", summary)
}

// MarkQuizGenerated sets the lecture's quiz flag.
func (s *Store) MarkQuizGenerated(ctx context.Context, lectureID uint) error {
	return s.updateLecture(ctx, lectureID, "quiz_generated", true)
}

func (s *Store) updateLecture(ctx context.Context, id uint, column string, value any) error {
	res := s.db.WithContext(ctx).Model(&Lecture{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("update lecture %d %s: %w", id, column, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("lecture %d: %w", id, ErrNotFound)
	}
	return nil
}

// AddQuestions stores questions for a lecture in one transaction and
// returns how many rows were written.
func (s *Store) AddQuestions(ctx context.Context, lectureID uint, questions []quiz.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	rows := make([]Question, len(questions))
	for i, q := range questions {
		rows[i] = questionRow(lectureID, q)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Lecture{}).Where("id = ?", lectureID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("lecture %d: %w", lectureID, ErrNotFound)
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return 0, fmt.Errorf("add questions: %w", err)
	}
	return len(rows), nil
}

// Questions returns a lecture's questions in creation order.
func (s *Store) Questions(ctx context.Context, lectureID uint) ([]Question, error) {
	var out []Question
	if err := s.db.WithContext(ctx).Where("lecture_id = ?", lectureID).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return out, nil
}

func notFound(err error, kind string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return fmt.Errorf("get %s %d: %w", kind, id, err)
}
