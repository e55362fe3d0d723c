package remover

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPRemover_Remove(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantErr    error
		wantResult []byte
	}{
		{
			name: "successful removal returns body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")

				file, header, err := r.FormFile("file")
				require.NoError(t, err)
				defer file.Close()
				assert.Equal(t, "cat.png", header.Filename)

				body, err := io.ReadAll(file)
				require.NoError(t, err)
				assert.Equal(t, []byte("input-bytes"), body)

				w.Header().Set("Content-Type", "image/png")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("processed-bytes"))
			},
			wantResult: []byte("processed-bytes"),
		},
		{
			name: "client error maps to invalid image",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte("cannot segment"))
			},
			wantErr: ErrInvalidImage,
		},
		{
			name: "server error maps to service unavailable",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: ErrServiceUnavailable,
		},
		{
			name: "empty success body maps to service unavailable",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			wantErr: ErrServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			r := NewHTTPRemover(&Config{Endpoint: srv.URL}, discardLogger())

			result, err := r.Remove(context.Background(), "cat.png", []byte("input-bytes"))

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantResult, result)
			}
		})
	}
}

func TestHTTPRemover_Remove_ServiceDown(t *testing.T) {
	// Reserve an address and close it so the dial fails fast
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	r := NewHTTPRemover(&Config{Endpoint: endpoint}, discardLogger())

	_, err := r.Remove(context.Background(), "cat.png", []byte("input-bytes"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestHTTPRemover_Remove_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("too late"))
	}))
	defer srv.Close()

	r := NewHTTPRemover(&Config{
		Endpoint:       srv.URL,
		RequestTimeout: 50 * time.Millisecond,
	}, discardLogger())

	_, err := r.Remove(context.Background(), "cat.png", []byte("input-bytes"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}
