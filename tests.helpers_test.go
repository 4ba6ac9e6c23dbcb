package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func strPtr(s string) *string { return &s }

func TestParsePublicationDate(t *testing.T) {
	testCases := []struct {
		input    string
		expected time.Time
	}{
		{"1965-08-01", time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC)},
		{"1965-08-01T10:30:00Z", time.Date(1965, 8, 1, 10, 30, 0, 0, time.UTC)},
		{"1965-08-01T12:30:00+02:00", time.Date(1965, 8, 1, 10, 30, 0, 0, time.UTC)},
		{"August 1, 1965", time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParsePublicationDate(tc.input)
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(got), "got %s", got)
		})
	}

	_, err := ParsePublicationDate("yesterday-ish")
	assert.Error(t, err)
}

func TestBookRequest(t *testing.T) {
	t.Run("create validation", func(t *testing.T) {
		full := BookRequest{Title: strPtr("Dune"), Author: strPtr("F. Herbert"), Genre: strPtr("SF"), PublicationDate: strPtr("1965")}
		assert.NoError(t, full.ValidateCreate())

		missing := BookRequest{Title: strPtr("Dune"), Author: strPtr("F. Herbert"), Genre: strPtr("SF")}
		assert.Error(t, missing.ValidateCreate())

		empty := BookRequest{Title: strPtr("Dune"), Author: strPtr(""), Genre: strPtr("SF"), PublicationDate: strPtr("1965")}
		assert.Error(t, empty.ValidateCreate())
	})

	t.Run("has any", func(t *testing.T) {
		assert.False(t, (&BookRequest{}).HasAny())
		assert.False(t, (&BookRequest{Title: strPtr("")}).HasAny())
		assert.True(t, (&BookRequest{Genre: strPtr("SF")}).HasAny())
	})

	t.Run("apply keeps absent and empty fields", func(t *testing.T) {
		pub := time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC)
		book := Book{Title: "Dune", Author: "F. Herbert", Genre: "SF", PublicationDate: pub}
		req := BookRequest{Author: strPtr("Frank Herbert"), Genre: strPtr("")}
		require.NoError(t, req.ApplyTo(&book))
		assert.Equal(t, Book{Title: "Dune", Author: "Frank Herbert", Genre: "SF", PublicationDate: pub}, book)
	})

	t.Run("apply leaves book untouched on bad date", func(t *testing.T) {
		book := Book{Title: "Dune"}
		req := BookRequest{Title: strPtr("Emma"), PublicationDate: strPtr("not a date")}
		assert.Error(t, req.ApplyTo(&book))
		assert.Equal(t, "Dune", book.Title)
	})
}

func TestDecodeBookRequestBody(t *testing.T) {
	var req BookRequest
	r := httptest.NewRequest(http.MethodPost, "/books", nil)
	assert.ErrorIs(t, DecodeBookRequestBody(r, &req), errEmptyRequestBody)

	r = httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"title":"Dune","genre":""}`))
	require.NoError(t, DecodeBookRequestBody(r, &req))
	assert.Equal(t, "Dune", *req.Title)
	assert.Equal(t, "", *req.Genre)
	assert.Nil(t, req.Author)
}

// TestWriteResponse ensures the status codes of the client side cancellations.
func TestWriteResponse(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteResponse(context.Background(), w, http.StatusNoContent, []Book{}))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w = httptest.NewRecorder()
	assert.Error(t, WriteResponse(ctx, w, http.StatusOK, nil))
	assert.Equal(t, StatusClientClosedRequest, w.Code)

	ctx, cancel = context.WithTimeout(context.Background(), -time.Second)
	defer cancel()
	w = httptest.NewRecorder()
	assert.Error(t, WriteErrorResponse(ctx, w, http.StatusOK, "late"))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestCustomResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := NewCustomResponseWriter(rec)
	assert.Equal(t, http.StatusOK, cw.Status())
	cw.WriteHeader(http.StatusCreated)
	cw.WriteHeader(http.StatusInternalServerError)
	n, err := cw.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusCreated, cw.Status())
	assert.Equal(t, 5, cw.Bytes())
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, rec, cw.Unwrap())
}

func TestCreateLogFilePath(t *testing.T) {
	now := NewMockClocker().Now()
	assert.Equal(t, filepath.Join("logs", "20230702.000000.prod.log"), CreateLogFilePath("logs", true, now))
	assert.Equal(t, filepath.Join("logs", "20230702.000000.dev.log"), CreateLogFilePath("logs", false, now))
}

// TestRSyncWrite ensures the writer rotates once the max size would be exceeded.
func TestRSyncWrite(t *testing.T) {
	dir := t.TempDir()
	clock := &MockClocker{MockNow: NewMockClocker().Now()}
	rsw := NewRSyncWriter(&Config{LogFolder: dir, LogMaxSize: 1}, clock)
	defer rsw.Close()

	line := []byte(strings.Repeat("x", 600*1024))
	_, err := rsw.Write(line)
	require.NoError(t, err)

	clock.MockNow = clock.MockNow.Add(time.Second)
	_, err = rsw.Write(line)
	require.NoError(t, err)
	require.NoError(t, rsw.Sync())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, len(entries))

	_, err = rsw.Write(make([]byte, 2<<20))
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	dir := t.TempDir()
	config := &Config{LogFolder: dir, LogMaxSize: 1, IsProduction: true, LogLevel: zapcore.InfoLevel, GitTag: "v1.0.0"}
	clock := NewMockClocker()
	rsw := NewRSyncWriter(config, clock)
	logger, flush := SetupLogging(config, rsw, NewTickClock(clock))
	logger.Info("hello")
	logger.Debug("hidden")
	require.NoError(t, flush())
	require.NoError(t, rsw.Close())

	data, err := os.ReadFile(CreateLogFilePath(dir, true, clock.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"app.tag":"v1.0.0"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestIDsHandler(t *testing.T) {
	idh := NewIDsHandler()
	id := idh.Generate(RequestIDPrefix)
	assert.True(t, strings.HasPrefix(id, "r:"))
	assert.Len(t, id, len("r:")+36)
	assert.NotEqual(t, id, idh.Generate(RequestIDPrefix))
	assert.False(t, idh.IsValid(id))
}
