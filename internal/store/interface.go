package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/semla/internal/models"
)

// ErrNotFound is returned when an update targets a row that no longer
// exists. A concurrent delete between form load and submit lands here
// instead of silently updating nothing.
var ErrNotFound = errors.New("student not found")

type StudentStore interface {
	Close() error
	ApplyMigrations(dir string) error

	FindByID(id int64) (*models.Student, error)
	FindByName(prefix string) ([]models.Student, error)
	Save(student *models.Student) error
	Delete(id int64) error

	ListStudents() ([]models.Student, error)
	CountStudents() (int64, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) FindByID(id int64) (*models.Student, error) {
	var student models.Student
	query := s.Converter(`
		SELECT id, name, sex, birth_date, birth_place, department, sno
		FROM students
		WHERE id = ?
	`)

	err := s.DB.Get(&student, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find student by id: %w", err)
	}
	return &student, nil
}

// FindByName matches every student whose name starts with the given
// prefix. An empty prefix matches the whole roster.
func (s *BaseStore) FindByName(prefix string) ([]models.Student, error) {
	students := []models.Student{}
	query := s.Converter(`
		SELECT id, name, sex, birth_date, birth_place, department, sno
		FROM students
		WHERE name LIKE ?
		ORDER BY name, id
	`)

	err := s.DB.Select(&students, query, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to find students by name: %w", err)
	}

	return students, nil
}

// UpdateStudent rewrites all columns of an existing row. Dialect stores
// call this from Save when the student already has an id.
func (s *BaseStore) UpdateStudent(student *models.Student) error {
	result, err := s.DB.NamedExec(`
		UPDATE students SET
			name = :name,
			sex = :sex,
			birth_date = :birth_date,
			birth_place = :birth_place,
			department = :department,
			sno = :sno
		WHERE id = :id
	`, student)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes the row with the given id. Deleting a missing id is a no-op.
func (s *BaseStore) Delete(id int64) error {
	query := s.Converter(`DELETE FROM students WHERE id = ?`)
	if _, err := s.DB.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	return nil
}

func (s *BaseStore) ListStudents() ([]models.Student, error) {
	students := []models.Student{}
	err := s.DB.Select(&students, `
		SELECT id, name, sex, birth_date, birth_place, department, sno
		FROM students
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

func (s *BaseStore) CountStudents() (int64, error) {
	var count int64
	err := s.DB.Get(&count, `SELECT COUNT(*) FROM students`)
	if err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}
