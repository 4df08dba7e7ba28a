package postgres

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/store"
)

type PostgresStore struct {
	store.BaseStore
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			out := query
			for i := 1; strings.Contains(out, "?"); i++ {
				out = strings.Replace(out, "?", fmt.Sprintf("$%d", i), 1)
			}
			return out
		},
	}}

	return s, nil
}

func (s *PostgresStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, nil)
}

// Save inserts the student when it has no id yet, otherwise updates the
// existing row. On insert the new id is written back into the student.
func (s *PostgresStore) Save(student *models.Student) error {
	if err := student.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid student: %w", err)
	}

	if !student.IsNew() {
		return s.UpdateStudent(student)
	}

	var id int64
	err := s.DB.Get(&id, `
		INSERT INTO students (name, sex, birth_date, birth_place, department, sno)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		student.Name,
		student.Sex,
		student.BirthDate,
		student.BirthPlace,
		student.Department,
		student.Sno,
	)
	if err != nil {
		return fmt.Errorf("failed to insert student: %w", err)
	}
	student.ID = &id

	return nil
}
