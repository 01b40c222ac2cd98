package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeAPIError reads the error envelope from the response.
func decodeAPIError(t *testing.T, res *http.Response) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.NewDecoder(res.Body).Decode(&apiErr))
	return apiErr
}

// TestGetAllBooksHandler ensures the listing handler returns the raw array.
func TestGetAllBooksHandler(t *testing.T) {
	t.Run("should pass: books stored", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{
			GetAllFunc: func(ctx context.Context) ([]Book, error) {
				return []Book{{ID: testBookID, Name: "Go in action", Price: 30}}, nil
			},
		})
		w := httptest.NewRecorder()
		api.GetAllBooks(w, httptest.NewRequest(http.MethodGet, "/api/PresensiHarianGuru", nil), nil)
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))

		var books []Book
		require.NoError(t, json.NewDecoder(res.Body).Decode(&books))
		assert.Equal(t, []Book{{ID: testBookID, Name: "Go in action", Price: 30}}, books)
	})

	t.Run("should pass: empty store", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{
			GetAllFunc: func(ctx context.Context) ([]Book, error) {
				return nil, nil
			},
		})
		w := httptest.NewRecorder()
		api.GetAllBooks(w, httptest.NewRequest(http.MethodGet, "/api/PresensiHarianGuru", nil), nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
	})

	t.Run("should fail: storage failure", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{
			GetAllFunc: func(ctx context.Context) ([]Book, error) {
				return nil, errors.New("storage failure")
			},
		})
		w := httptest.NewRecorder()
		api.GetAllBooks(w, httptest.NewRequest(http.MethodGet, "/api/PresensiHarianGuru", nil), nil)
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		apiErr := decodeAPIError(t, res)
		assert.Equal(t, MsgInternalFailure, apiErr.Message)
		assert.NotContains(t, apiErr.Message, "storage failure")
	})
}

// TestGetOneBookHandler ensures a single book can be fetched.
func TestGetOneBookHandler(t *testing.T) {
	ps := httprouter.Params{{Key: "id", Value: testBookID}}

	t.Run("should pass: existing book", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{
			GetOneFunc: func(ctx context.Context, id string) (Book, error) {
				return Book{ID: id, Name: "Go in action", Price: 30, Category: "Tech", Author: "Kennedy"}, nil
			},
		})
		w := httptest.NewRecorder()
		api.GetOneBook(w, httptest.NewRequest(http.MethodGet, "/api/PresensiHarianGuru/"+testBookID, nil), ps)
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)

		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		m := make(map[string]interface{})
		require.NoError(t, json.Unmarshal(data, &m))
		assert.Equal(t, testBookID, m["id"])
		assert.Equal(t, "Go in action", m["name"])
		assert.Equal(t, float64(30), m["price"])
		assert.Equal(t, "Tech", m["category"])
		assert.Equal(t, "Kennedy", m["author"])
	})

	t.Run("should fail: book not found", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{
			GetOneFunc: func(ctx context.Context, id string) (Book, error) {
				return Book{}, ErrBookNotFound
			},
		})
		w := httptest.NewRecorder()
		api.GetOneBook(w, httptest.NewRequest(http.MethodGet, "/api/PresensiHarianGuru/"+testBookID, nil), ps)
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		assert.Equal(t, http.StatusNotFound, decodeAPIError(t, res).Status)
	})

	t.Run("should fail: storage failure", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{
			GetOneFunc: func(ctx context.Context, id string) (Book, error) {
				return Book{}, errors.New("storage failure")
			},
		})
		w := httptest.NewRecorder()
		api.GetOneBook(w, httptest.NewRequest(http.MethodGet, "/api/PresensiHarianGuru/"+testBookID, nil), ps)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

// TestCreateBookHandler ensures api handler can create a book.
//
//nolint:funlen
func TestCreateBookHandler(t *testing.T) {
	t.Run("should pass: valid payload", func(t *testing.T) {
		var stored Book
		api := newTestAPIHandler(&MockBookStorage{
			AddFunc: func(ctx context.Context, book *Book) error {
				book.ID = testBookID
				stored = *book
				return nil
			},
		})
		payload := `{"name":"Test book","price":10.5,"category":"Tech","author":"Jerome Amon"}`
		req := httptest.NewRequest(http.MethodPost, "/api/PresensiHarianGuru", strings.NewReader(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, nil)
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusCreated, res.StatusCode)
		assert.Equal(t, "/api/PresensiHarianGuru/"+testBookID, res.Header.Get("Location"))

		var book Book
		require.NoError(t, json.NewDecoder(res.Body).Decode(&book))
		assert.Equal(t, Book{ID: testBookID, Name: "Test book", Price: 10.5, Category: "Tech", Author: "Jerome Amon"}, book)
		assert.Equal(t, stored, book)
	})

	t.Run("should fail: missing or invalid payload", func(t *testing.T) {
		var called bool
		api := newTestAPIHandler(&MockBookStorage{
			AddFunc: func(ctx context.Context, book *Book) error {
				called = true
				return nil
			},
		})
		for _, payload := range []string{"", "null", "{invalid", `{"price":"ten"}`} {
			req := httptest.NewRequest(http.MethodPost, "/api/PresensiHarianGuru", strings.NewReader(payload))
			w := httptest.NewRecorder()
			api.CreateBook(w, req, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, payload)
		}
		assert.False(t, called)
	})

	t.Run("should fail: storage insertion failure", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{
			AddFunc: func(ctx context.Context, book *Book) error {
				return errors.New("storage failure")
			},
		})
		payload, err := json.Marshal(Book{Name: "Test book"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/PresensiHarianGuru", bytes.NewBuffer(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, nil)
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		assert.Empty(t, res.Header.Get("Location"))
		assert.Equal(t, MsgCreateBookFailure, decodeAPIError(t, res).Message)
	})

	t.Run("should fail: duplicate id", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{
			AddFunc: func(ctx context.Context, book *Book) error {
				return ErrBookExists
			},
		})
		req := httptest.NewRequest(http.MethodPost, "/api/PresensiHarianGuru", strings.NewReader(`{"id":"`+testBookID+`"}`))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, nil)
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		assert.Equal(t, MsgCreateBookFailure, decodeAPIError(t, res).Message)
	})
}

// TestUpdateBookHandler ensures api handler can replace a book.
//
//nolint:funlen
func TestUpdateBookHandler(t *testing.T) {
	ps := httprouter.Params{{Key: "id", Value: testBookID}}
	existing := func(ctx context.Context, id string) (Book, error) {
		return Book{ID: id, Name: "Old", Price: 1}, nil
	}

	t.Run("should pass: existing book", func(t *testing.T) {
		var updatedID string
		var updated Book
		api := newTestAPIHandler(&MockBookStorage{
			GetOneFunc: existing,
			UpdateFunc: func(ctx context.Context, id string, book Book) error {
				updatedID, updated = id, book
				return nil
			},
		})
		payload := `{"id":"ffffffffffffffffffffffff","name":"New","price":2}`
		req := httptest.NewRequest(http.MethodPut, "/api/PresensiHarianGuru/"+testBookID, strings.NewReader(payload))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, ps)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, testBookID, updatedID)
		assert.Equal(t, Book{ID: testBookID, Name: "New", Price: 2}, updated)
	})

	t.Run("should fail: invalid payload", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{GetOneFunc: existing})
		req := httptest.NewRequest(http.MethodPut, "/api/PresensiHarianGuru/"+testBookID, strings.NewReader("null"))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, ps)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should fail: book not found", func(t *testing.T) {
		var called bool
		api := newTestAPIHandler(&MockBookStorage{
			GetOneFunc: func(ctx context.Context, id string) (Book, error) {
				return Book{}, ErrBookNotFound
			},
			UpdateFunc: func(ctx context.Context, id string, book Book) error {
				called = true
				return nil
			},
		})
		req := httptest.NewRequest(http.MethodPut, "/api/PresensiHarianGuru/"+testBookID, strings.NewReader(`{"name":"New"}`))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, ps)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.False(t, called)
	})

	t.Run("should fail: book removed meanwhile", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{
			GetOneFunc: existing,
			UpdateFunc: func(ctx context.Context, id string, book Book) error {
				return ErrBookNotFound
			},
		})
		req := httptest.NewRequest(http.MethodPut, "/api/PresensiHarianGuru/"+testBookID, strings.NewReader(`{"name":"New"}`))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, ps)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("should fail: storage failure", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{
			GetOneFunc: existing,
			UpdateFunc: func(ctx context.Context, id string, book Book) error {
				return errors.New("storage failure")
			},
		})
		req := httptest.NewRequest(http.MethodPut, "/api/PresensiHarianGuru/"+testBookID, strings.NewReader(`{"name":"New"}`))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, ps)
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		assert.Equal(t, MsgInternalFailure, decodeAPIError(t, res).Message)
	})
}

// TestDeleteOneBookHandler ensures api handler can delete a book.
func TestDeleteOneBookHandler(t *testing.T) {
	ps := httprouter.Params{{Key: "id", Value: testBookID}}

	t.Run("should pass: existing book", func(t *testing.T) {
		var deleted string
		api := newTestAPIHandler(&MockBookStorage{
			GetOneFunc: func(ctx context.Context, id string) (Book, error) {
				return Book{ID: id}, nil
			},
			DeleteFunc: func(ctx context.Context, id string) error {
				deleted = id
				return nil
			},
		})
		w := httptest.NewRecorder()
		api.DeleteOneBook(w, httptest.NewRequest(http.MethodDelete, "/api/PresensiHarianGuru/"+testBookID, nil), ps)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, testBookID, deleted)
	})

	t.Run("should fail: book not found", func(t *testing.T) {
		var called bool
		api := newTestAPIHandler(&MockBookStorage{
			GetOneFunc: func(ctx context.Context, id string) (Book, error) {
				return Book{}, ErrBookNotFound
			},
			DeleteFunc: func(ctx context.Context, id string) error {
				called = true
				return nil
			},
		})
		w := httptest.NewRecorder()
		api.DeleteOneBook(w, httptest.NewRequest(http.MethodDelete, "/api/PresensiHarianGuru/"+testBookID, nil), ps)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.False(t, called)
	})

	t.Run("should fail: storage failure", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{
			GetOneFunc: func(ctx context.Context, id string) (Book, error) {
				return Book{ID: id}, nil
			},
			DeleteFunc: func(ctx context.Context, id string) error {
				return errors.New("storage failure")
			},
		})
		w := httptest.NewRecorder()
		api.DeleteOneBook(w, httptest.NewRequest(http.MethodDelete, "/api/PresensiHarianGuru/"+testBookID, nil), ps)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
