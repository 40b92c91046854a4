package api

import (
	"bytes"
	"code_assessment/internal/app/execution"
	"code_assessment/internal/app/service"
	"code_assessment/internal/catalog"
	"code_assessment/internal/common/security"
	"code_assessment/internal/domain/model"
	"code_assessment/internal/domain/repository"
	"code_assessment/internal/platform/lock"
	"code_assessment/internal/platform/queue"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	salesCpp = "#include <iostream>\nint main() { int max = 0; return 0; }"
	budget   = 7200
)

type testServer struct {
	handler http.Handler
	tokens  *security.TokenManager
	jobs    *service.GradingJobService
	queue   queue.JobQueue
}

func newTestServer(t *testing.T, checks map[string]ReadinessCheck) *testServer {
	t.Helper()
	ctx := context.Background()

	questions, err := catalog.LoadEmbedded()
	require.NoError(t, err)
	questionRepo, err := repository.NewCatalogQuestionRepository(questions)
	require.NoError(t, err)

	users := repository.NewMemoryUserRepository()
	demo, err := repository.DemoUsers()
	require.NoError(t, err)
	require.NoError(t, repository.SeedUsers(ctx, users, demo))

	store := repository.NewMemoryStore(budget)
	locker := lock.NewMemoryLocker()
	runner := execution.NewRunner(execution.NewSimulator(0, 0))
	tokens := security.NewTokenManager([]byte("test-secret"), time.Hour)
	q := queue.NewMemoryQueue(8)
	jobs := service.NewGradingJobService(repository.NewMemoryGradingJobRepository(), questionRepo, q)

	h := NewRouter(RouterDeps{
		Tokens:            tokens,
		CORSOrigins:       []string{"http://localhost:3000"},
		AuthService:       service.NewAuthService(users, tokens),
		QuestionService:   service.NewQuestionService(questionRepo),
		GradingService:    service.NewGradingService(questionRepo, store, store, runner, locker),
		GradingJobService: jobs,
		ProgressService:   service.NewProgressService(questionRepo, store, store, locker, budget),
		ReadinessChecks:   checks,
	})
	return &testServer{handler: h, tokens: tokens, jobs: jobs, queue: q}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": repository.DemoPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Login successful", resp.Message)
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, map[string]ReadinessCheck{
		"database": func(ctx context.Context) error { return nil },
	})
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok"}}`, w.Body.String())

	down := newTestServer(t, map[string]ReadinessCheck{
		"redis": func(ctx context.Context) error { return errors.New("dial tcp: refused") },
	})
	w = down.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable","checks":{"redis":"unavailable"}}`, w.Body.String())
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "demo1@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials","message":"Invalid credentials"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "demo1@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	token := s.login(t, "demo2@example.com")
	w = s.do(t, http.MethodGet, "/api/v1/auth/verify", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":{"id":"demo2","email":"demo2@example.com","name":"Demo User 2"}}`, w.Body.String())
}

func TestAuthenticationRequired(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/v1/questions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "No token provided")

	w = s.do(t, http.MethodGet, "/api/v1/questions", "garbage.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token")

	other := jwtauth.New("HS256", []byte("another-secret"), nil)
	_, forged, err := other.Encode(map[string]any{"user_id": "demo1", "exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, err)
	w = s.do(t, http.MethodGet, "/api/v1/progress", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token")

	expired := security.NewTokenManager([]byte("test-secret"), -time.Hour)
	stale, err := expired.GenerateToken(&model.User{ID: "demo1"})
	require.NoError(t, err)
	w = s.do(t, http.MethodGet, "/api/v1/progress", stale, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLanguagesArePublic(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/api/v1/languages", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"languages":[{"id":"java","name":"Java","judge0Id":62},{"id":"cpp","name":"C++","judge0Id":54}]}`, w.Body.String())
}

func TestQuestions(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "demo1@example.com")

	w := s.do(t, http.MethodGet, "/api/v1/questions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Questions []model.Question `json:"questions"`
		Total     int              `json:"total"`
	}](t, w)
	assert.Equal(t, 15, list.Total)
	require.Len(t, list.Questions, 15)
	for _, q := range list.Questions {
		for _, tc := range q.TestCases {
			assert.True(t, tc.IsVisible, "question %d leaks a hidden case", q.ID)
		}
	}

	w = s.do(t, http.MethodGet, "/api/v1/questions/1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	one := decode[struct {
		Question model.Question `json:"question"`
	}](t, w)
	assert.Equal(t, "Sales Report Analysis", one.Question.Title)

	w = s.do(t, http.MethodGet, "/api/v1/questions/sales-report-analysis", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/questions/-4", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid question ID")

	w = s.do(t, http.MethodGet, "/api/v1/questions/999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Question not found")
}

func TestRunCode(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "demo1@example.com")

	w := s.do(t, http.MethodPost, "/api/v1/code/run", token, map[string]any{"questionId": 1, "code": salesCpp, "language": "cpp"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[model.RunResult](t, w)
	require.NotEmpty(t, res.Results)
	for _, r := range res.Results {
		assert.True(t, r.IsVisible)
	}
	assert.True(t, res.Results[0].Passed)

	w = s.do(t, http.MethodPost, "/api/v1/code/run", token, map[string]any{"questionId": 1, "code": "int main() {}", "language": "cpp"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "C++ code must include necessary headers", decode[model.RunResult](t, w).Error)

	w = s.do(t, http.MethodGet, "/api/v1/submissions", token, nil)
	assert.JSONEq(t, `{"submissions":[]}`, w.Body.String(), "run never persists")
}

func TestCodeRequestValidation(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "demo1@example.com")

	tests := []struct {
		name string
		body any
		code int
		msg  string
	}{
		{"missing code", map[string]any{"questionId": 1, "language": "java"}, http.StatusBadRequest, "Missing required fields"},
		{"empty code", map[string]any{"questionId": 1, "code": "", "language": "java"}, http.StatusBadRequest, "Missing required fields"},
		{"missing question", map[string]any{"code": "x", "language": "java"}, http.StatusBadRequest, "Missing required fields"},
		{"bad json", "{", http.StatusBadRequest, "Missing required fields"},
		{"bad language", map[string]any{"questionId": 1, "code": "x", "language": "python"}, http.StatusBadRequest, "Invalid language"},
		{"unknown question", map[string]any{"questionId": 404, "code": salesCpp, "language": "cpp"}, http.StatusNotFound, "Question not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, path := range []string{"/api/v1/code/run", "/api/v1/code/submit", "/api/v1/code/submit/async"} {
				w := s.do(t, http.MethodPost, path, token, tt.body)
				assert.Equal(t, tt.code, w.Code, path)
				assert.Contains(t, w.Body.String(), tt.msg, path)
			}
		})
	}
}

func TestSubmitFlow(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "demo1@example.com")

	w := s.do(t, http.MethodPost, "/api/v1/code/submit", token, map[string]any{"questionId": 1, "code": salesCpp, "language": "cpp"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sub := decode[struct {
		Success bool `json:"success"`
		model.GradingResult
	}](t, w)
	assert.True(t, sub.Success)
	assert.NotEmpty(t, sub.SubmissionID)
	assert.Equal(t, 10, sub.MaxScore)
	assert.GreaterOrEqual(t, sub.Score, 0)
	assert.LessOrEqual(t, sub.Score, 10)
	assert.Equal(t, sub.Score, sub.TotalScore)
	assert.Len(t, sub.Results, sub.TotalTests)

	w = s.do(t, http.MethodGet, "/api/v1/progress", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	progress := decode[struct {
		Progress service.ProgressSummary `json:"progress"`
	}](t, w)
	assert.Equal(t, service.ProgressSummary{CompletedQuestions: 1, TotalQuestions: 15, Score: sub.Score, TimeRemaining: budget}, progress.Progress)

	w = s.do(t, http.MethodGet, "/api/v1/submissions/"+sub.SubmissionID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	other := s.login(t, "demo2@example.com")
	w = s.do(t, http.MethodGet, "/api/v1/submissions/"+sub.SubmissionID, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Submission not found")

	w = s.do(t, http.MethodPut, "/api/v1/progress/time", token, map[string]int{"timeRemaining": 7000})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPut, "/api/v1/progress/time", token, map[string]int{"timeRemaining": 9000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPut, "/api/v1/progress/time", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/results", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	results := decode[struct {
		Results service.ResultsSummary `json:"results"`
	}](t, w)
	assert.Equal(t, sub.Score, results.Results.TotalScore)
	assert.Equal(t, 200, results.Results.TimeSpent)
	assert.Equal(t, 15, results.Results.TotalQuestions)
	require.Len(t, results.Results.Submissions, 1)
	assert.Equal(t, "Sales Report Analysis", results.Results.Submissions[0].QuestionTitle)

	w = s.do(t, http.MethodGet, "/api/v1/leaderboard", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	board := decode[struct {
		Leaderboard []model.LeaderboardEntry `json:"leaderboard"`
	}](t, w)
	require.NotEmpty(t, board.Leaderboard)
	assert.Equal(t, "demo1", board.Leaderboard[0].UserID)
	assert.Equal(t, 1, board.Leaderboard[0].CompletedQuestions)
}

func TestWhitespaceCodeIsACompilationError(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "demo1@example.com")
	body := map[string]any{"questionId": 1, "code": "   \n\t", "language": "java"}

	w := s.do(t, http.MethodPost, "/api/v1/code/run", token, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Code cannot be empty", decode[model.RunResult](t, w).Error)

	w = s.do(t, http.MethodPost, "/api/v1/code/submit", token, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[model.GradingResult](t, w)
	assert.Equal(t, "Code cannot be empty", res.CompilationError)
	assert.Zero(t, res.Score)

	w = s.do(t, http.MethodGet, "/api/v1/submissions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	subs := decode[struct {
		Submissions []model.Submission `json:"submissions"`
	}](t, w)
	require.Len(t, subs.Submissions, 1)
	assert.Equal(t, model.SubmissionError, subs.Submissions[0].Status)
	assert.Zero(t, subs.Submissions[0].Score)
}

func TestSubmitCompilationError(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "demo1@example.com")

	w := s.do(t, http.MethodPost, "/api/v1/code/submit", token, map[string]any{"questionId": 1, "code": "public class Main {}", "language": "java"})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[model.GradingResult](t, w)
	assert.Equal(t, "Java code must contain a main method", res.CompilationError)
	assert.Zero(t, res.Score)
	assert.Empty(t, res.Results)
}

func TestAsyncSubmitAndJobOwnership(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "demo1@example.com")

	w := s.do(t, http.MethodPost, "/api/v1/code/submit/async", token, map[string]any{"questionId": 1, "code": salesCpp, "language": "cpp"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	jobID := decode[map[string]string](t, w)["jobId"]
	require.NotEmpty(t, jobID)

	popped, err := s.queue.Pop(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, jobID, popped)

	w = s.do(t, http.MethodGet, "/api/v1/jobs/"+jobID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	job := decode[struct {
		Job model.GradingJob `json:"job"`
	}](t, w)
	assert.Equal(t, model.JobStatusQueued, job.Job.Status)

	other := s.login(t, "demo3@example.com")
	w = s.do(t, http.MethodGet, "/api/v1/jobs/"+jobID, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Job not found")
}
