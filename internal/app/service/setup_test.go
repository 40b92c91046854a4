package service

import (
	"code_assessment/internal/app/execution"
	"code_assessment/internal/domain/model"
	"code_assessment/internal/domain/repository"
	"code_assessment/internal/platform/lock"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	budget = 7200

	rotateJava = `import java.util.*;
public class Main {
    public static void main(String[] args) {
        // rotate left
    }
}`
	rotateCpp = "#include <iostream>\nint main() { /* rotate */ return 0; }"
)

func testQuestions() []model.Question {
	return []model.Question{
		{
			ID: 1, Title: "Rotate an Array", Difficulty: model.DifficultyEasy, Category: "Arrays", Points: 20,
			TestCases: []model.TestCase{
				{Input: "5 2\n1 2 3 4 5", ExpectedOutput: "3 4 5 1 2", IsVisible: true},
				{Input: "4 1\n10 20 30 40", ExpectedOutput: "20 30 40 10", IsVisible: true},
				{Input: "3 1\n1 2 3", ExpectedOutput: "2 3 1", IsVisible: false},
				{Input: "3 1\n7 8 9", ExpectedOutput: "0 0 0", IsVisible: false},
			},
		},
		{
			ID: 2, Title: "Sales Report Analysis", Difficulty: model.DifficultyMedium, Category: "Arrays", Points: 10,
			TestCases: []model.TestCase{
				{Input: "5\n100 200 150 300 250", ExpectedOutput: "Maximum sales: 300 on day 4\nMinimum sales: 100 on day 1\nAverage sales: 200", IsVisible: true},
			},
		},
	}
}

type testEnv struct {
	questions repository.QuestionRepository
	store     *repository.MemoryStore
	jobs      repository.GradingJobRepository
	grading   *GradingService
	progress  *ProgressService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	questions, err := repository.NewCatalogQuestionRepository(testQuestions())
	require.NoError(t, err)

	store := repository.NewMemoryStore(budget)
	locker := lock.NewMemoryLocker()
	runner := execution.NewRunner(execution.NewSimulator(0, 0))

	return &testEnv{
		questions: questions,
		store:     store,
		jobs:      repository.NewMemoryGradingJobRepository(),
		grading:   NewGradingService(questions, store, store, runner, locker),
		progress:  NewProgressService(questions, store, store, locker, budget),
	}
}
