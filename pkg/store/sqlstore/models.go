package sqlstore

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/goliatone/go-scannergen/pkg/model"
)

type sectionRow struct {
	ID          string `gorm:"primaryKey;size:64"`
	Position    int    `gorm:"not null;index"`
	Title       string `gorm:"size:255"`
	Code        string `gorm:"type:text"`
	IsMandatory bool   `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (sectionRow) TableName() string { return "scanner_sections" }

// questionRow stores the tagged question encoding; the type column is kept
// alongside for ad-hoc queries.
type questionRow struct {
	ID        string         `gorm:"primaryKey;size:64"`
	Position  int            `gorm:"not null;index"`
	Type      string         `gorm:"size:16;not null"`
	Payload   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (questionRow) TableName() string { return "scanner_questions" }

// answerRow holds a sheet as a JSON array of {questionId, value} pairs.
// Arrays keep their order in jsonb, objects do not.
type answerRow struct {
	Session   string         `gorm:"primaryKey;column:session_key;size:128"`
	Payload   datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (answerRow) TableName() string { return "scanner_answers" }

func emptyAnswerRow(session string) answerRow {
	return answerRow{Session: session, Payload: datatypes.JSON(`[]`)}
}

func (r answerRow) answers() (model.Answers, error) {
	var pairs []model.Answer
	if err := json.Unmarshal(r.Payload, &pairs); err != nil {
		return nil, fmt.Errorf("sqlstore: decode answers %s: %w", r.Session, err)
	}
	return model.NewAnswers(pairs...), nil
}

func encodeAnswers(answers model.Answers) (datatypes.JSON, error) {
	pairs := []model.Answer(answers)
	if pairs == nil {
		pairs = []model.Answer{}
	}
	payload, err := json.Marshal(pairs)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: encode answers: %w", err)
	}
	return payload, nil
}
