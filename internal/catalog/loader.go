package catalog

import (
	"code_assessment/internal/domain/model"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var embeddedQuestions []byte

// File is the YAML layout of a question catalog.
type File struct {
	Questions []QuestionFile `yaml:"questions"`
}

type QuestionFile struct {
	ID           int            `yaml:"id"`
	Title        string         `yaml:"title"`
	Difficulty   string         `yaml:"difficulty"`
	Category     string         `yaml:"category"`
	Points       int            `yaml:"points"`
	Description  string         `yaml:"description"`
	Constraints  []string       `yaml:"constraints"`
	SampleInput  string         `yaml:"sampleInput"`
	SampleOutput string         `yaml:"sampleOutput"`
	TestCases    []TestCaseFile `yaml:"testCases"`
}

type TestCaseFile struct {
	Input          string `yaml:"input"`
	ExpectedOutput string `yaml:"expectedOutput"`
	Visible        bool   `yaml:"visible"`
}

// LoadEmbedded parses the catalog compiled into the binary.
func LoadEmbedded() ([]model.Question, error) {
	return Parse(embeddedQuestions)
}

// LoadFile parses a catalog from disk.
func LoadFile(path string) ([]model.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes catalog YAML. Structural validation happens when the
// questions are indexed by the repository.
func Parse(data []byte) ([]model.Question, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}

	questions := make([]model.Question, 0, len(f.Questions))
	for _, qf := range f.Questions {
		q := model.Question{
			ID:           qf.ID,
			Title:        qf.Title,
			Description:  qf.Description,
			Constraints:  qf.Constraints,
			SampleInput:  qf.SampleInput,
			SampleOutput: qf.SampleOutput,
			Difficulty:   model.Difficulty(qf.Difficulty),
			Category:     qf.Category,
			Points:       qf.Points,
			TestCases:    make([]model.TestCase, len(qf.TestCases)),
		}
		if q.Constraints == nil {
			q.Constraints = []string{}
		}
		for i, tc := range qf.TestCases {
			q.TestCases[i] = model.TestCase{
				Input:          tc.Input,
				ExpectedOutput: tc.ExpectedOutput,
				IsVisible:      tc.Visible,
			}
		}
		questions = append(questions, q)
	}
	return questions, nil
}
