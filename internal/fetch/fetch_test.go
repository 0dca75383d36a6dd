package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/views/home.html", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fragnav-test", r.Header.Get("User-Agent"))
		fmt.Fprint(w, "<h1>Home</h1>")
	})
	mux.HandleFunc("/views/created.html", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, "<p>created</p>")
	})
	mux.HandleFunc("/views/broken.html", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_Success(t *testing.T) {
	srv := newSite(t)
	f, err := New(Options{BaseURL: srv.URL, UserAgent: "fragnav-test"})
	require.NoError(t, err)

	body, err := f.Fetch(context.Background(), "./views/home.html")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Home</h1>", body)

	body, err = f.Fetch(context.Background(), "views/created.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>created</p>", body)
}

func TestFetcher_HTTPFailures(t *testing.T) {
	srv := newSite(t)
	f, err := New(Options{BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	tests := []struct {
		location string
		status   int
	}{
		{"./views/missing.html", http.StatusNotFound},
		{"./views/broken.html", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			_, err := f.Fetch(context.Background(), tt.location)
			var fe *Error
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.status, fe.Status)
			assert.Equal(t, tt.location, fe.Location)
			assert.Contains(t, fe.Error(), fmt.Sprintf("HTTP %d", tt.status))
		})
	}
}

func TestFetcher_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	f, err := New(Options{BaseURL: base})
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "./views/home.html")
	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.Status)
	assert.NotNil(t, errors.Unwrap(err))
	assert.Contains(t, fe.Error(), "fetch ")
}

func TestFetcher_Resolve(t *testing.T) {
	f, err := New(Options{BaseURL: "http://gallery.test/site"})
	require.NoError(t, err)

	got, err := f.Resolve("./views/home.html")
	require.NoError(t, err)
	assert.Equal(t, "http://gallery.test/site/views/home.html", got)

	got, err = f.Resolve("/views/home.html")
	require.NoError(t, err)
	assert.Equal(t, "http://gallery.test/views/home.html", got)
}

func TestNew_RejectsRelativeBase(t *testing.T) {
	_, err := New(Options{BaseURL: "views/"})
	assert.Error(t, err)
}

func TestExternal_FetchData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/posts/1":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":1,"title":"Starry Night"}`)
		case "/garbage":
			fmt.Fprint(w, "<html>")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ext := NewExternal(srv.URL+"/", nil, nil)

	ok := ext.FetchData(context.Background(), "posts/1")
	require.True(t, ok.Success)
	assert.JSONEq(t, `{"id":1,"title":"Starry Night"}`, string(ok.Data))

	missing := ext.FetchData(context.Background(), "/users/404")
	assert.False(t, missing.Success)
	assert.Contains(t, missing.Error, "HTTP 404")

	garbage := ext.FetchData(context.Background(), "garbage")
	assert.False(t, garbage.Success)
	assert.Contains(t, garbage.Error, "invalid JSON")
}

func TestResult_TwoShapes(t *testing.T) {
	ok, err := json.Marshal(Result{Success: true, Data: json.RawMessage(`[1]`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":[1]}`, string(ok))

	failed, err := json.Marshal(Result{Error: "HTTP 500: Internal Server Error"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"HTTP 500: Internal Server Error"}`, string(failed))
}
