package model

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Question struct {
	ID           int        `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Description  string     `json:"description"`
	Constraints  []string   `json:"constraints"`
	SampleInput  string     `json:"sampleInput"`
	SampleOutput string     `json:"sampleOutput"`
	TestCases    []TestCase `json:"testCases"`
	Difficulty   Difficulty `json:"difficulty"`
	Category     string     `json:"category"`
	Points       int        `json:"points"`
}

type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	IsVisible      bool   `json:"isVisible"`
}

// Clone returns a deep copy so callers cannot mutate catalog state.
func (q *Question) Clone() *Question {
	c := *q
	c.Constraints = append([]string(nil), q.Constraints...)
	c.TestCases = append([]TestCase(nil), q.TestCases...)
	return &c
}

// Public returns a copy holding only the visible test cases.
func (q *Question) Public() *Question {
	c := q.Clone()
	c.TestCases = VisibleTestCases(q.TestCases)
	return c
}

func VisibleTestCases(cases []TestCase) []TestCase {
	visible := make([]TestCase, 0, len(cases))
	for _, tc := range cases {
		if tc.IsVisible {
			visible = append(visible, tc)
		}
	}
	return visible
}
