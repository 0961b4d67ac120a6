package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"costlens/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)

		assert.Equal(t, "costs.csv", header.Filename)
		assert.Equal(t, "Date,Cost\n2024-01-01,1\n", string(content))
		assert.Equal(t, "cost_data", r.FormValue("table_name"))

		_ = json.NewEncoder(w).Encode(dto.UploadResponse{Message: "ok", Rows: 1})
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "costs.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date,Cost\n2024-01-01,1\n"), 0o600))

	c := New(server.URL+"/", time.Second, WithToken("tok"))
	resp, err := c.Upload(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Message)
	assert.Equal(t, 1, resp.Rows)
}

func TestUpload_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid file type. Only CSV files allowed"}`))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "costs.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := New(server.URL, time.Second).Upload(context.Background(), path)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid file type. Only CSV files allowed", apiErr.Message)

	_, err = New(server.URL, time.Second).Upload(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAsk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req dto.AskRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}

		switch req.Question {
		case "ok":
			_ = json.NewEncoder(w).Encode(dto.AskResponse{Success: true, Question: req.Question, Response: "fine"})
		case "bad sql":
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(dto.AskResponse{Success: false, Question: req.Question, Error: "no such column"})
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"No question provided"}`))
		}
	}))
	defer server.Close()

	c := New(server.URL, time.Second)

	resp, err := c.Ask(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "fine", resp.Response)

	resp, err = c.Ask(context.Background(), "bad sql")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.False(t, resp.Success)
	assert.Equal(t, "no such column", resp.Error)

	resp, err = c.Ask(context.Background(), "")
	assert.Nil(t, resp)
	assert.EqualError(t, err, "server returned 400: No question provided")
}
