// Package sqlstore persists sections, questions and answers through gorm.
// SQLite and Postgres are supported out of the box.
package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/goliatone/go-scannergen/pkg/model"
	"github.com/goliatone/go-scannergen/pkg/store"
)

// Store is a gorm-backed store.Store.
type Store struct {
	db *gorm.DB
}

var (
	_ store.Store         = (*Store)(nil)
	_ store.AnswerUpdater = (*Store)(nil)
)

func gormConfig() *gorm.Config {
	return &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Warn),
	}
}

// OpenSQLite opens (or creates) a SQLite database file. Use ":memory:" for a
// throwaway database.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open sqlite: %w", err)
	}
	return db, nil
}

// OpenPostgres connects to Postgres with a DSN.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("sqlstore: connect postgres: %w", err)
	}
	return db, nil
}

// New migrates the schema and returns a store.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: db is nil")
	}
	if err := db.AutoMigrate(&sectionRow{}, &questionRow{}, &answerRow{}); err != nil {
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Seed replaces all sections and questions with those of b.
func (s *Store) Seed(ctx context.Context, b model.Bundle) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&sectionRow{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&questionRow{}).Error; err != nil {
			return err
		}
		for i, section := range b.Sections {
			row := toSectionRow(store.PrepareSection(section), i)
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("sqlstore: seed section %s: %w", section.ID, err)
			}
		}
		for i, question := range b.Questions {
			question, err := store.PrepareQuestion(question)
			if err != nil {
				return err
			}
			row, err := toQuestionRow(question, i)
			if err != nil {
				return err
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("sqlstore: seed question %s: %w", row.ID, err)
			}
		}
		return nil
	})
}

func toSectionRow(section model.Section, position int) sectionRow {
	return sectionRow{
		ID:          section.ID,
		Position:    position,
		Title:       section.Title,
		Code:        section.Code,
		IsMandatory: section.IsMandatory,
	}
}

func (r sectionRow) section() model.Section {
	return model.Section{ID: r.ID, Title: r.Title, Code: r.Code, IsMandatory: r.IsMandatory}
}

func toQuestionRow(question model.Question, position int) (questionRow, error) {
	payload, err := json.Marshal(question)
	if err != nil {
		return questionRow{}, fmt.Errorf("sqlstore: encode question: %w", err)
	}
	return questionRow{
		ID:       question.Common().ID,
		Position: position,
		Type:     string(question.Type()),
		Payload:  payload,
	}, nil
}

func (r questionRow) question() (model.Question, error) {
	q, err := model.DecodeQuestionJSON(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: decode question %s: %w", r.ID, err)
	}
	return q, nil
}

func (s *Store) ListSections(ctx context.Context) ([]model.Section, error) {
	var rows []sectionRow
	if err := s.db.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sqlstore: list sections: %w", err)
	}
	out := make([]model.Section, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.section())
	}
	return out, nil
}

func (s *Store) SaveSection(ctx context.Context, section model.Section) (model.Section, error) {
	section = store.PrepareSection(section)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing sectionRow
		err := tx.Where("id = ?", section.ID).Take(&existing).Error
		switch {
		case err == nil:
			return tx.Model(&existing).Select("Title", "Code", "IsMandatory").Updates(sectionRow{
				Title:       section.Title,
				Code:        section.Code,
				IsMandatory: section.IsMandatory,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			position, err := nextPosition(tx, &sectionRow{})
			if err != nil {
				return err
			}
			row := toSectionRow(section, position)
			return tx.Create(&row).Error
		default:
			return err
		}
	})
	if err != nil {
		return model.Section{}, fmt.Errorf("sqlstore: save section: %w", err)
	}
	return section, nil
}

func (s *Store) DeleteSection(ctx context.Context, id string) error {
	return deleteRow(ctx, s.db, &sectionRow{}, id)
}

func (s *Store) MoveSection(ctx context.Context, id string, index int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&sectionRow{}).Order("position asc").Pluck("id", &ids).Error; err != nil {
			return err
		}
		return reposition(tx, &sectionRow{}, ids, id, index)
	})
}

func (s *Store) ListQuestions(ctx context.Context) ([]model.Question, error) {
	var rows []questionRow
	if err := s.db.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sqlstore: list questions: %w", err)
	}
	out := make([]model.Question, 0, len(rows))
	for _, row := range rows {
		q, err := row.question()
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *Store) SaveQuestion(ctx context.Context, question model.Question) (model.Question, error) {
	question, err := store.PrepareQuestion(question)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing questionRow
		err := tx.Where("id = ?", question.Common().ID).Take(&existing).Error
		switch {
		case err == nil:
			row, err := toQuestionRow(question, existing.Position)
			if err != nil {
				return err
			}
			return tx.Model(&existing).Select("Type", "Payload").Updates(row).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			position, err := nextPosition(tx, &questionRow{})
			if err != nil {
				return err
			}
			row, err := toQuestionRow(question, position)
			if err != nil {
				return err
			}
			return tx.Create(&row).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: save question: %w", err)
	}
	return question, nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	return deleteRow(ctx, s.db, &questionRow{}, id)
}

func (s *Store) MoveQuestion(ctx context.Context, id string, index int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&questionRow{}).Order("position asc").Pluck("id", &ids).Error; err != nil {
			return err
		}
		return reposition(tx, &questionRow{}, ids, id, index)
	})
}

func (s *Store) LoadAnswers(ctx context.Context, session string) (model.Answers, error) {
	if err := store.ValidSession(session); err != nil {
		return nil, err
	}
	var row answerRow
	err := s.db.WithContext(ctx).Where("session_key = ?", session).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: load answers: %w", err)
	}
	return row.answers()
}

func (s *Store) SaveAnswers(ctx context.Context, session string, answers model.Answers) error {
	if err := store.ValidSession(session); err != nil {
		return err
	}
	payload, err := encodeAnswers(answers)
	if err != nil {
		return err
	}
	row := answerRow{Session: session, Payload: payload}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("sqlstore: save answers: %w", err)
	}
	return nil
}

// UpdateAnswers runs fn inside a transaction holding the session's row lock.
// The row is created empty first so there is always something to lock; a
// failing fn rolls that insert back.
func (s *Store) UpdateAnswers(ctx context.Context, session string, fn store.UpdateFunc) (model.Answers, error) {
	if err := store.ValidSession(session); err != nil {
		return nil, err
	}
	var updated model.Answers
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		placeholder := emptyAnswerRow(session)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&placeholder).Error; err != nil {
			return fmt.Errorf("sqlstore: reserve answers: %w", err)
		}

		query := tx
		// sqlite has no row locks; the insert above already took the
		// database write lock.
		if tx.Dialector.Name() != "sqlite" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var row answerRow
		if err := query.Where("session_key = ?", session).Take(&row).Error; err != nil {
			return fmt.Errorf("sqlstore: lock answers: %w", err)
		}
		current, err := row.answers()
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		payload, err := encodeAnswers(next)
		if err != nil {
			return err
		}
		err = tx.Model(&answerRow{}).Where("session_key = ?", session).
			Updates(map[string]any{"payload": payload, "updated_at": time.Now()}).Error
		if err != nil {
			return fmt.Errorf("sqlstore: save answers: %w", err)
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) ClearAnswers(ctx context.Context, session string) error {
	if err := s.db.WithContext(ctx).Where("session_key = ?", session).Delete(&answerRow{}).Error; err != nil {
		return fmt.Errorf("sqlstore: clear answers: %w", err)
	}
	return nil
}

func nextPosition(tx *gorm.DB, table any) (int, error) {
	var max int
	if err := tx.Model(table).Select("COALESCE(MAX(position), -1)").Row().Scan(&max); err != nil {
		return 0, err
	}
	return max + 1, nil
}

func deleteRow(ctx context.Context, db *gorm.DB, table any, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(table)
	if res.Error != nil {
		return fmt.Errorf("sqlstore: delete %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// reposition rewrites positions 0..n-1 after moving id to index.
func reposition(tx *gorm.DB, table any, ids []string, id string, index int) error {
	ordered, err := store.Move(ids, id, index, func(s string) string { return s })
	if err != nil {
		return err
	}
	for position, rowID := range ordered {
		if err := tx.Model(table).Where("id = ?", rowID).Update("position", position).Error; err != nil {
			return fmt.Errorf("sqlstore: reposition %s: %w", rowID, err)
		}
	}
	return nil
}
