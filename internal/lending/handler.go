// internal/lending/handler.go
package lending

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"libralend/internal/domain"
	"libralend/internal/textimport"
)

// Handler exposes the lending service over HTTP/JSON. Command failures
// come back as {success:false, message} with a status mapped from the
// domain error, never as bare 500s.
type Handler struct {
	service Service
	parser  textimport.Parser
}

func NewHandler(service Service, parser textimport.Parser) *Handler {
	return &Handler{service: service, parser: parser}
}

// Register mounts all routes. Catalog and roster mutations go through the
// admin middleware; the student portal operations stay open.
func (h *Handler) Register(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Get("/books", h.handleListBooks)
	r.Get("/students", h.handleListStudents)
	r.Get("/records", h.handleListRecords)
	r.Get("/dashboard", h.handleDashboard)
	r.Get("/loans/overdue", h.handleOverdue)
	r.Post("/loans/borrow", h.handleBorrow)
	r.Post("/loans/return", h.handleReturn)

	r.Group(func(r chi.Router) {
		r.Use(admin)
		r.Post("/books", h.handleAddBook)
		r.Post("/books/import", h.handleImportBooks)
		r.Delete("/books/{id}", h.handleDeleteBook)
		r.Post("/students", h.handleAddStudent)
		r.Post("/students/import", h.handleImportStudents)
		r.Delete("/students/{id}", h.handleDeleteStudent)
	})
}

type commandResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnavailable), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLimitExceeded), errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, textimport.ErrParseFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func commandFailure(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), commandResult{Success: false, Message: err.Error()})
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListBooks(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if books == nil {
		books = []domain.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *Handler) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.service.ListStudents(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if students == nil {
		students = []domain.Student{}
	}
	writeJSON(w, http.StatusOK, students)
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListBorrowRecords(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []domain.BorrowRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DashboardStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleOverdue(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.OverdueRecords(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if details == nil {
		details = []domain.OverdueRecordDetail{}
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *Handler) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var in domain.BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	book, err := h.service.AddBook(r.Context(), in)
	if err != nil {
		commandFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

func (h *Handler) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid book ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteBook(r.Context(), id); err != nil {
		commandFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResult{Success: true, Message: "Book deleted."})
}

func (h *Handler) handleImportBooks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		commandFailure(w, fmt.Errorf("import text is required: %w", domain.ErrValidation))
		return
	}

	candidates, err := h.parser.ParseBooks(r.Context(), req.Text)
	if err != nil {
		commandFailure(w, err)
		return
	}

	books, err := h.service.AddBooks(r.Context(), candidates)
	if err != nil {
		commandFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, books)
}

func (h *Handler) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	var in domain.StudentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	student, err := h.service.AddStudent(r.Context(), in)
	if err != nil {
		commandFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

func (h *Handler) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid student ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteStudent(r.Context(), id); err != nil {
		commandFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResult{Success: true, Message: "Student deleted."})
}

func (h *Handler) handleImportStudents(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		commandFailure(w, fmt.Errorf("import text is required: %w", domain.ErrValidation))
		return
	}

	candidates, err := h.parser.ParseStudents(r.Context(), req.Text)
	if err != nil {
		commandFailure(w, err)
		return
	}

	students, err := h.service.AddStudents(r.Context(), candidates)
	if err != nil {
		commandFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, students)
}

func (h *Handler) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID     int         `json:"bookId"`
		StudentID  int         `json:"studentId"`
		BorrowDate domain.Date `json:"borrowDate"`
		DueDate    domain.Date `json:"dueDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	message, err := h.service.BorrowBook(r.Context(), req.BookID, req.StudentID, req.BorrowDate, req.DueDate)
	if err != nil {
		commandFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResult{Success: true, Message: message})
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID    int `json:"bookId"`
		StudentID int `json:"studentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	message, err := h.service.ReturnBook(r.Context(), req.BookID, req.StudentID)
	if err != nil {
		commandFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResult{Success: true, Message: message})
}
