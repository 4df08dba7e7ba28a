package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/store"
	"github.com/shrimpsizemoose/semla/internal/store/sqlite"
	"github.com/shrimpsizemoose/semla/internal/views"
)

func setupTestServer(t *testing.T) (*http.ServeMux, store.StudentStore) {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		sex TEXT,
		birth_date TEXT,
		birth_place TEXT,
		department TEXT,
		sno TEXT
	);`

	st, err := sqlite.NewSQLiteStore(":memory:")
	require.NoError(t, err, "Failed to create store")
	_, err = st.DB.Exec(schema)
	require.NoError(t, err, "Failed to create schema")
	t.Cleanup(func() { st.Close() })

	config := &app.Config{}
	config.Flash.CookieName = "semla_flash"
	config.Flash.TTLSeconds = 60

	service := &app.Service{
		Config: config,
		Store:  st,
		Flash:  app.NewMemoryFlash(time.Minute),
	}

	renderer, err := views.New()
	require.NoError(t, err, "Failed to parse templates")

	h := NewStudentHandler(service, renderer)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /students/new", h.ShowCreateForm)
	mux.HandleFunc("POST /students/new", h.HandleCreate)
	mux.HandleFunc("GET /students/find", h.ShowFindForm)
	mux.HandleFunc("GET /students", h.HandleFind)
	mux.HandleFunc("GET /students/{id}/edit", h.ShowEditForm)
	mux.HandleFunc("POST /students/{id}/edit", h.HandleEdit)
	mux.HandleFunc("GET /students/{id}/delete", h.HandleDelete)
	mux.HandleFunc("GET /students/{id}", h.ShowDetail)

	return mux, st
}

func postForm(mux *http.ServeMux, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func seedStudent(t *testing.T, st store.StudentStore, name, sno string) int64 {
	student := &models.Student{
		Name:       name,
		Sex:        "F",
		BirthDate:  "2001-09-14",
		BirthPlace: "Springfield",
		Department: "CS",
		Sno:        sno,
	}
	require.NoError(t, st.Save(student))
	return *student.ID
}

func aliceForm() url.Values {
	return url.Values{
		"name":        {"Alice"},
		"sex":         {"F"},
		"birth_date":  {"2001-09-14"},
		"birth_place": {"Springfield"},
		"department":  {"CS"},
		"sno":         {"S001"},
	}
}

func TestCreateStudent(t *testing.T) {
	mux, st := setupTestServer(t)

	w := postForm(mux, "/students/new", aliceForm())

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/students/1", w.Header().Get("Location"))

	got, err := st.FindByID(1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "F", got.Sex)
	assert.Equal(t, "Springfield", got.BirthPlace)
	assert.Equal(t, "CS", got.Department)
	assert.Equal(t, "S001", got.Sno)
}

func TestCreateValidationBlocksWrite(t *testing.T) {
	mux, st := setupTestServer(t)

	form := aliceForm()
	form.Set("name", "")
	form.Set("sno", "")

	w := postForm(mux, "/students/new", form)

	require.Equal(t, http.StatusOK, w.Code, "Rejected form is redisplayed, not redirected")
	assert.Contains(t, w.Body.String(), "is required")

	count, err := st.CountStudents()
	require.NoError(t, err)
	assert.Zero(t, count, "No row may be written on validation failure")
}

func TestCreateKeepsSubmittedValuesOnError(t *testing.T) {
	mux, _ := setupTestServer(t)

	form := aliceForm()
	form.Set("name", "")

	w := postForm(mux, "/students/new", form)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Springfield", "Submitted values survive the round-trip")
}

func TestFindFlow(t *testing.T) {
	mux, st := setupTestServer(t)
	alID := seedStudent(t, st, "Al", "S001")
	aliceID := seedStudent(t, st, "Alice", "S002")

	t.Run("by existing id redirects to detail", func(t *testing.T) {
		w := get(mux, fmt.Sprintf("/students?id=%d", alID))
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, fmt.Sprintf("/students/%d", alID), w.Header().Get("Location"))
	})

	t.Run("by missing id redisplays with field error", func(t *testing.T) {
		w := get(mux, "/students?id=999")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "not found")
	})

	t.Run("by unparseable id redisplays with field error", func(t *testing.T) {
		w := get(mux, "/students?id=banana")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "must be a number")
	})

	t.Run("id wins over name", func(t *testing.T) {
		w := get(mux, fmt.Sprintf("/students?id=%d&name=Alice", alID))
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, fmt.Sprintf("/students/%d", alID), w.Header().Get("Location"))
	})

	t.Run("single name match redirects to detail", func(t *testing.T) {
		w := get(mux, "/students?name=Alice")
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, fmt.Sprintf("/students/%d", aliceID), w.Header().Get("Location"))
	})

	t.Run("several name matches render the pick list", func(t *testing.T) {
		w := get(mux, "/students?name=Al")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), ">Al<")
		assert.Contains(t, w.Body.String(), ">Alice<")
	})

	t.Run("zero name matches redisplay with field error", func(t *testing.T) {
		w := get(mux, "/students?name=Zoe")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "not found")
	})

	t.Run("missing name means broadest search", func(t *testing.T) {
		w := get(mux, "/students")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), ">Al<")
		assert.Contains(t, w.Body.String(), ">Alice<")
	})
}

func TestEditIgnoresBodyID(t *testing.T) {
	mux, st := setupTestServer(t)
	id := seedStudent(t, st, "Alice", "S001")

	form := aliceForm()
	form.Set("department", "Math")
	form.Set("id", "999") // must be ignored, only the path id counts

	w := postForm(mux, fmt.Sprintf("/students/%d/edit", id), form)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/students/%d", id), w.Header().Get("Location"))

	got, err := st.FindByID(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Math", got.Department)

	smuggled, err := st.FindByID(999)
	require.NoError(t, err)
	assert.Nil(t, smuggled)

	count, err := st.CountStudents()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestEditValidationBlocksWrite(t *testing.T) {
	mux, st := setupTestServer(t)
	id := seedStudent(t, st, "Alice", "S001")

	form := aliceForm()
	form.Set("department", "")

	w := postForm(mux, fmt.Sprintf("/students/%d/edit", id), form)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "is required")

	got, err := st.FindByID(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "CS", got.Department, "Rejected edit must not modify the row")
}

func TestEditMissingStudent(t *testing.T) {
	mux, _ := setupTestServer(t)

	w := postForm(mux, "/students/42/edit", aliceForm())
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(mux, "/students/42/edit")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteStudent(t *testing.T) {
	mux, st := setupTestServer(t)
	aliceID := seedStudent(t, st, "Alice", "S001")
	bobID := seedStudent(t, st, "Bob", "S002")

	w := get(mux, fmt.Sprintf("/students/%d/delete", aliceID))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/students", w.Header().Get("Location"))

	t.Run("repeat delete is harmless", func(t *testing.T) {
		w := get(mux, fmt.Sprintf("/students/%d/delete", aliceID))
		require.Equal(t, http.StatusFound, w.Code)

		got, err := st.FindByID(bobID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Bob", got.Name)
	})
}

func TestDetail(t *testing.T) {
	mux, st := setupTestServer(t)
	id := seedStudent(t, st, "Alice", "S001")

	t.Run("existing student renders", func(t *testing.T) {
		w := get(mux, fmt.Sprintf("/students/%d", id))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Alice")
		assert.Contains(t, w.Body.String(), "S001")
	})

	t.Run("missing student renders 404 page", func(t *testing.T) {
		w := get(mux, "/students/999")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "No student with id 999")
	})

	t.Run("garbage id renders 404 page", func(t *testing.T) {
		w := get(mux, "/students/banana")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFlashSurvivesRedirect(t *testing.T) {
	mux, _ := setupTestServer(t)

	w := postForm(mux, "/students/new", aliceForm())
	require.Equal(t, http.StatusFound, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "Create must set the flash cookie")

	req := httptest.NewRequest(http.MethodGet, w.Header().Get("Location"), nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	followUp := httptest.NewRecorder()
	mux.ServeHTTP(followUp, req)

	require.Equal(t, http.StatusOK, followUp.Code)
	assert.Contains(t, followUp.Body.String(), "Student created")

	// the message is one-shot
	again := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/students/1", nil)
	for _, c := range cookies {
		req2.AddCookie(c)
	}
	mux.ServeHTTP(again, req2)
	assert.NotContains(t, again.Body.String(), "Student created")
}
