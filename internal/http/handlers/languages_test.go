package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kwameasante/lingomate/internal/cache"
	"github.com/kwameasante/lingomate/internal/domain/language"
	"github.com/kwameasante/lingomate/internal/http/handlers"
)

type fakeLanguageLister struct {
	calls int
	rows  []language.Language
	err   error
}

func (f *fakeLanguageLister) List(ctx context.Context) ([]language.Language, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	return f.rows, nil
}

func TestListLanguages(t *testing.T) {
	lister := &fakeLanguageLister{
		rows: []language.Language{
			{ID: "l1", Code: "en", Name: "English", NativeName: "English"},
			{ID: "l2", Code: "es", Name: "Spanish", NativeName: "Español"},
		},
	}

	h := handlers.NewLanguagesHandler(lister, cache.New(time.Minute))
	r := setupRouter(http.MethodGet, "/languages", h.List)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/languages", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}

		var body struct {
			Data []language.Language `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("response decode: %v", err)
		}
		if len(body.Data) != 2 || body.Data[0].Code != "en" {
			t.Fatalf("unexpected rows: %+v", body.Data)
		}
	}

	// repeated reads come out of the cache
	if lister.calls != 1 {
		t.Fatalf("expected one store read, got %d", lister.calls)
	}
}

func TestListLanguages_StoreError(t *testing.T) {
	lister := &fakeLanguageLister{err: errors.New("db down")}

	h := handlers.NewLanguagesHandler(lister, cache.New(time.Minute))
	r := setupRouter(http.MethodGet, "/languages", h.List)

	req := httptest.NewRequest(http.MethodGet, "/languages", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
