package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/metrics"
	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/store"
	"github.com/shrimpsizemoose/semla/internal/views"
)

type StudentHandler struct {
	service *app.Service
	views   *views.Renderer
}

func NewStudentHandler(service *app.Service, views *views.Renderer) *StudentHandler {
	return &StudentHandler{
		service: service,
		views:   views,
	}
}

// ShowCreateForm renders an empty create form.
func (h *StudentHandler) ShowCreateForm(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, http.StatusOK, "createOrUpdate", views.FormPage{
		Student: &models.Student{},
		Action:  "/students/new",
	})
}

// HandleCreate validates the submitted form and persists a new student.
// Any validation failure redisplays the form with field errors and
// touches nothing in the store.
func (h *StudentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, "Could not read the submitted form")
		return
	}

	student := bindStudentForm(r)

	if fieldErrs := models.FieldErrors(student.Validate()); len(fieldErrs) > 0 {
		h.views.Render(w, http.StatusOK, "createOrUpdate", views.FormPage{
			Student: student,
			Errors:  fieldErrs,
			Action:  "/students/new",
		})
		return
	}

	if err := h.service.Store.Save(student); err != nil {
		logger.Error.Printf("Failed to create student: %v", err)
		h.renderError(w, "Failed to save student")
		return
	}

	metrics.StudentMutationsTotal.WithLabelValues("created").Inc()
	h.refreshRosterSize()

	h.setFlash(w, r, "Student created")
	http.Redirect(w, r, fmt.Sprintf("/students/%d", *student.ID), http.StatusFound)
}

// ShowFindForm renders an empty find form.
func (h *StudentHandler) ShowFindForm(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, http.StatusOK, "find", views.FindPage{
		Flash: h.popFlash(r),
	})
}

// HandleFind runs the combined search. An id, when present, wins over
// the name even if both were filled in. A missing name means the
// broadest possible search. A single hit in either branch redirects to
// the canonical detail page, multiple name hits render the pick list.
func (h *StudentHandler) HandleFind(w http.ResponseWriter, r *http.Request) {
	query := views.FindQuery{
		ID:   strings.TrimSpace(r.URL.Query().Get("id")),
		Name: r.URL.Query().Get("name"),
	}

	if query.ID != "" {
		id, err := strconv.ParseInt(query.ID, 10, 64)
		if err != nil {
			h.views.Render(w, http.StatusOK, "find", views.FindPage{
				Query:  query,
				Errors: map[string]string{"ID": "must be a number"},
			})
			return
		}

		student, err := h.service.Store.FindByID(id)
		if err != nil {
			logger.Error.Printf("Failed to find student by id %d: %v", id, err)
			h.renderError(w, "Search failed")
			return
		}
		if student == nil {
			h.views.Render(w, http.StatusOK, "find", views.FindPage{
				Query:  query,
				Errors: map[string]string{"ID": "not found"},
			})
			return
		}

		http.Redirect(w, r, fmt.Sprintf("/students/%d", id), http.StatusFound)
		return
	}

	matches, err := h.service.Store.FindByName(query.Name)
	if err != nil {
		logger.Error.Printf("Failed to find students by name %q: %v", query.Name, err)
		h.renderError(w, "Search failed")
		return
	}

	switch len(matches) {
	case 0:
		h.views.Render(w, http.StatusOK, "find", views.FindPage{
			Query:  query,
			Errors: map[string]string{"Name": "not found"},
			Flash:  h.popFlash(r),
		})
	case 1:
		http.Redirect(w, r, fmt.Sprintf("/students/%d", *matches[0].ID), http.StatusFound)
	default:
		h.views.Render(w, http.StatusOK, "list", views.ListPage{
			Students: matches,
			Flash:    h.popFlash(r),
		})
	}
}

// ShowEditForm renders the edit form pre-populated from the store.
func (h *StudentHandler) ShowEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	student, err := h.service.Store.FindByID(id)
	if err != nil {
		logger.Error.Printf("Failed to load student %d for edit: %v", id, err)
		h.renderError(w, "Failed to load student")
		return
	}
	if student == nil {
		h.renderNotFound(w, id)
		return
	}

	h.views.Render(w, http.StatusOK, "createOrUpdate", views.FormPage{
		Student: student,
		Action:  fmt.Sprintf("/students/%d/edit", id),
	})
}

// HandleEdit validates the submitted form and updates the student. The
// path id is authoritative, an id smuggled into the form body never
// reaches the record.
func (h *StudentHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderError(w, "Could not read the submitted form")
		return
	}

	student := bindStudentForm(r)
	student.ID = &id

	if fieldErrs := models.FieldErrors(student.Validate()); len(fieldErrs) > 0 {
		h.views.Render(w, http.StatusOK, "createOrUpdate", views.FormPage{
			Student: student,
			Errors:  fieldErrs,
			Action:  fmt.Sprintf("/students/%d/edit", id),
		})
		return
	}

	if err := h.service.Store.Save(student); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderNotFound(w, id)
			return
		}
		logger.Error.Printf("Failed to update student %d: %v", id, err)
		h.renderError(w, "Failed to save student")
		return
	}

	metrics.StudentMutationsTotal.WithLabelValues("updated").Inc()

	h.setFlash(w, r, "Student updated")
	http.Redirect(w, r, fmt.Sprintf("/students/%d", id), http.StatusFound)
}

// HandleDelete removes the student and sends the browser back to the
// collection entry point. A repeat delete of the same id is harmless.
func (h *StudentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Store.Delete(id); err != nil {
		logger.Error.Printf("Failed to delete student %d: %v", id, err)
		h.renderError(w, "Failed to delete student")
		return
	}

	metrics.StudentMutationsTotal.WithLabelValues("deleted").Inc()
	h.refreshRosterSize()

	h.setFlash(w, r, "Student deleted")
	http.Redirect(w, r, "/students", http.StatusFound)
}

// ShowDetail renders the canonical single-record view.
func (h *StudentHandler) ShowDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	student, err := h.service.Store.FindByID(id)
	if err != nil {
		logger.Error.Printf("Failed to load student %d: %v", id, err)
		h.renderError(w, "Failed to load student")
		return
	}
	if student == nil {
		h.renderNotFound(w, id)
		return
	}

	h.views.Render(w, http.StatusOK, "detail", views.DetailPage{
		Student: student,
		Flash:   h.popFlash(r),
	})
}

// bindStudentForm reads the student fields from the form body. The id
// is deliberately not among them.
func bindStudentForm(r *http.Request) *models.Student {
	return &models.Student{
		Name:       strings.TrimSpace(r.PostFormValue("name")),
		Sex:        strings.TrimSpace(r.PostFormValue("sex")),
		BirthDate:  strings.TrimSpace(r.PostFormValue("birth_date")),
		BirthPlace: strings.TrimSpace(r.PostFormValue("birth_place")),
		Department: strings.TrimSpace(r.PostFormValue("department")),
		Sno:        strings.TrimSpace(r.PostFormValue("sno")),
	}
}

func (h *StudentHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.views.Render(w, http.StatusNotFound, "notfound", views.MessagePage{
			Message: fmt.Sprintf("%q is not a student id", raw),
		})
		return 0, false
	}
	return id, true
}

func (h *StudentHandler) renderNotFound(w http.ResponseWriter, id int64) {
	h.views.Render(w, http.StatusNotFound, "notfound", views.MessagePage{
		Message: fmt.Sprintf("No student with id %d", id),
	})
}

func (h *StudentHandler) renderError(w http.ResponseWriter, message string) {
	h.views.Render(w, http.StatusInternalServerError, "error", views.MessagePage{
		Message: message,
	})
}

func (h *StudentHandler) refreshRosterSize() {
	count, err := h.service.Store.CountStudents()
	if err != nil {
		logger.Debug.Printf("Failed to refresh roster size: %v", err)
		return
	}
	metrics.RosterSize.Set(float64(count))
}

// setFlash stashes a one-shot confirmation keyed by a browser cookie so
// it survives the redirect.
func (h *StudentHandler) setFlash(w http.ResponseWriter, r *http.Request, message string) {
	cookieName := h.service.Config.Flash.CookieName

	var key string
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		key = cookie.Value
	} else {
		key, err = newFlashKey()
		if err != nil {
			logger.Debug.Printf("Failed to generate flash key: %v", err)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    key,
			Path:     "/",
			HttpOnly: true,
		})
	}

	if err := h.service.Flash.Put(r.Context(), key, message); err != nil {
		// flash is best effort
		logger.Debug.Printf("Failed to store flash message: %v", err)
	}
}

func (h *StudentHandler) popFlash(r *http.Request) string {
	cookie, err := r.Cookie(h.service.Config.Flash.CookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}

	message, err := h.service.Flash.Pop(r.Context(), cookie.Value)
	if err != nil {
		logger.Debug.Printf("Failed to pop flash message: %v", err)
		return ""
	}
	return message
}

func newFlashKey() (string, error) {
	randomBytes := make([]byte, 12)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(randomBytes), nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// WithMetrics wraps a handler with a request duration observation.
func WithMetrics(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(recorder, r)

		metrics.HTTPRequestDuration.WithLabelValues(
			path,
			r.Method,
			strconv.Itoa(recorder.status),
		).Observe(time.Since(start).Seconds())
	}
}
