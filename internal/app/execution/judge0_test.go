package execution

import (
	"code_assessment/internal/common"
	"code_assessment/internal/domain/model"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJudge0(t *testing.T, handler http.HandlerFunc) *Judge0Executor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewJudge0Executor(Judge0Config{
		BaseURL:      srv.URL + "/",
		APIKey:       "key",
		Host:         "judge0.test",
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	})
}

func TestJudge0Accepted(t *testing.T) {
	j := newJudge0(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/submissions", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("base64_encoded"))
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		assert.Equal(t, "key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "judge0.test", r.Header.Get("X-RapidAPI-Host"))

		var req judge0Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 54, req.LanguageID)
		assert.Equal(t, "1 2", req.Stdin)

		w.Write([]byte(`{"stdout":"3\n","status":{"id":3,"description":"Accepted"}}`))
	})

	out, err := j.Execute(context.Background(), validCpp, model.LanguageCpp, "1 2")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestJudge0CompilationError(t *testing.T) {
	j := newJudge0(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"compile_output":"Main.java:1: error: ';' expected\n","status":{"id":6,"description":"Compilation Error"}}`))
	})

	_, err := j.Execute(context.Background(), validJava, model.LanguageJava, "")
	var compileErr *CompilationError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "Main.java:1: error: ';' expected", compileErr.Reason)
}

func TestJudge0RuntimeError(t *testing.T) {
	j := newJudge0(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stderr":"Segmentation fault","status":{"id":11,"description":"Runtime Error (NZEC)"}}`))
	})

	_, err := j.Execute(context.Background(), validCpp, model.LanguageCpp, "")
	require.Error(t, err)
	assert.Equal(t, "Runtime Error (NZEC): Segmentation fault", err.Error())
	assert.NotErrorIs(t, err, common.ErrServiceUnavailable)
}

func TestJudge0RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	j := newJudge0(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"stdout":"ok","status":{"id":3,"description":"Accepted"}}`))
	})

	out, err := j.Execute(context.Background(), validCpp, model.LanguageCpp, "")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestJudge0DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	j := newJudge0(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := j.Execute(context.Background(), validCpp, model.LanguageCpp, "")
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestJudge0BreakerOpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	j := newJudge0(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	for i := 0; i < 3; i++ {
		_, err := j.Execute(context.Background(), validCpp, model.LanguageCpp, "")
		require.Error(t, err)
	}
	require.Equal(t, int32(3), calls.Load())

	_, err := j.Execute(context.Background(), validCpp, model.LanguageCpp, "")
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
	assert.Equal(t, int32(3), calls.Load(), "open breaker short-circuits the call")
}

func TestJudge0RejectsUnknownLanguage(t *testing.T) {
	j := NewJudge0Executor(Judge0Config{BaseURL: "http://127.0.0.1:0"})
	_, err := j.Execute(context.Background(), "x", model.Language("python"), "")
	assert.ErrorIs(t, err, common.ErrValidation)
}
