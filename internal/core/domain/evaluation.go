package domain

import (
	"strconv"
	"time"
)

// DefaultSource is recorded when an answer has no citations.
const DefaultSource = "No especificada"

// SourceContentLimit bounds the source excerpt kept in a record, in runes.
const SourceContentLimit = 200

// EvaluationColumns is the header of the persisted result table.
var EvaluationColumns = []string{
	"timestamp", "question", "answer", "reference_answer", "source", "source_content",
	"bleu_score", "rouge-1", "rouge-2", "rouge-l", "source_relevance", "response_time",
}

// QuestionCase pairs a question with its reference answer.
type QuestionCase struct {
	Question  string `yaml:"question" json:"question"`
	Reference string `yaml:"reference" json:"reference"`
}

// Scores are the quality metrics of one answer.
type Scores struct {
	BLEU            float64 `json:"bleu_score"`
	Rouge1          float64 `json:"rouge-1"`
	Rouge2          float64 `json:"rouge-2"`
	RougeL          float64 `json:"rouge-l"`
	SourceRelevance float64 `json:"source_relevance"`
}

// EvaluationRecord is one processed question of an evaluation run.
type EvaluationRecord struct {
	Timestamp       time.Time
	Question        string
	Answer          string
	ReferenceAnswer string
	Source          string
	SourceContent   string
	Scores
	ResponseTime time.Duration
}

// Values renders the record in EvaluationColumns order.
func (r EvaluationRecord) Values() []string {
	return []string{
		r.Timestamp.Format("2006-01-02 15:04:05"),
		r.Question,
		r.Answer,
		r.ReferenceAnswer,
		r.Source,
		r.SourceContent,
		formatScore(r.BLEU),
		formatScore(r.Rouge1),
		formatScore(r.Rouge2),
		formatScore(r.RougeL),
		formatScore(r.SourceRelevance),
		strconv.FormatFloat(r.ResponseTime.Seconds(), 'f', 3, 64),
	}
}

// Excerpt truncates text to SourceContentLimit runes.
func Excerpt(text string) string {
	r := []rune(text)
	if len(r) <= SourceContentLimit {
		return text
	}
	return string(r[:SourceContentLimit])
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
