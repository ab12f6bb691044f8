// internal/lending/implementation.go
package lending

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"libralend/internal/domain"
	"libralend/internal/store"
)

const (
	// maxLoanDays caps the borrow span.
	maxLoanDays = 730
	// overdueLimit is the number of overdue loans that blocks further borrowing.
	overdueLimit = 5
	// topListSize is how many entries the dashboard rankings carry.
	topListSize = 3

	unknownBookLabel    = "Unknown book"
	unknownStudentLabel = "Unknown student"
)

// service implements the Service interface.
type service struct {
	store  *store.Store
	now    func() time.Time
	tracer trace.Tracer

	borrowsTotal metric.Int64Counter
	returnsTotal metric.Int64Counter
}

// NewService creates a new lending service over the given store.
func NewService(st *store.Store) Service {
	return NewServiceWithClock(st, time.Now)
}

// NewServiceWithClock is NewService with an injectable clock, so tests can
// pin "today". Overdue status is always recomputed from this clock.
func NewServiceWithClock(st *store.Store, now func() time.Time) Service {
	meter := otel.Meter("libralend/lending")
	borrows, _ := meter.Int64Counter("lending.borrows.total",
		metric.WithDescription("Number of successful borrow commands"))
	returns, _ := meter.Int64Counter("lending.returns.total",
		metric.WithDescription("Number of successful return commands"))

	return &service{
		store:        st,
		now:          now,
		tracer:       otel.Tracer("libralend/lending"),
		borrowsTotal: borrows,
		returnsTotal: returns,
	}
}

func (s *service) today() domain.Date {
	return domain.DateOf(s.now())
}

// ListBooks returns a snapshot of the catalog, newest additions first.
func (s *service) ListBooks(ctx context.Context) ([]domain.Book, error) {
	var books []domain.Book
	s.store.View(func(st *store.State) {
		books = st.CopyBooks()
	})
	return books, nil
}

// ListStudents returns a snapshot of the roster, newest additions first.
func (s *service) ListStudents(ctx context.Context) ([]domain.Student, error) {
	var students []domain.Student
	s.store.View(func(st *store.State) {
		students = st.CopyStudents()
	})
	return students, nil
}

// ListBorrowRecords returns a snapshot of all records in insertion order.
func (s *service) ListBorrowRecords(ctx context.Context) ([]domain.BorrowRecord, error) {
	var records []domain.BorrowRecord
	s.store.View(func(st *store.State) {
		records = st.CopyRecords()
	})
	return records, nil
}

func validateBookInput(in domain.BookInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("book title is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(in.Author) == "" {
		return fmt.Errorf("book author is required: %w", domain.ErrValidation)
	}
	return nil
}

// AddBook creates a single book. An empty cover image stays empty; the
// presentation layer owns placeholder covers.
func (s *service) AddBook(ctx context.Context, in domain.BookInput) (*domain.Book, error) {
	if err := validateBookInput(in); err != nil {
		return nil, err
	}
	var created domain.Book
	err := s.store.Update(func(st *store.State) error {
		created = st.InsertBook(in)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// AddBooks creates one book per entry in input order, each with a fresh
// sequential id. The whole batch is rejected before any mutation if a
// single entry is invalid.
func (s *service) AddBooks(ctx context.Context, in []domain.BookInput) ([]domain.Book, error) {
	_, span := s.tracer.Start(ctx, "lending.add_books",
		trace.WithAttributes(attribute.Int("book.count", len(in))))
	defer span.End()

	if len(in) == 0 {
		return nil, fmt.Errorf("no books to add: %w", domain.ErrValidation)
	}
	for i, entry := range in {
		if err := validateBookInput(entry); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
	}

	created := make([]domain.Book, 0, len(in))
	err := s.store.Update(func(st *store.State) error {
		for _, entry := range in {
			created = append(created, st.InsertBook(entry))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteBook removes a book that is not currently on loan. Deleting an
// unknown id reports NotFound rather than silently succeeding.
func (s *service) DeleteBook(ctx context.Context, bookID int) error {
	_, span := s.tracer.Start(ctx, "lending.delete_book",
		trace.WithAttributes(attribute.Int("book.id", bookID)))
	defer span.End()

	return s.store.Update(func(st *store.State) error {
		if st.FindBook(bookID) == nil {
			return fmt.Errorf("book with ID %d: %w", bookID, domain.ErrNotFound)
		}
		if st.BookOnLoan(bookID) {
			return fmt.Errorf("book is currently on loan: %w", domain.ErrConflict)
		}
		st.RemoveBook(bookID)
		return nil
	})
}

// AddStudent adds a single student to the roster.
func (s *service) AddStudent(ctx context.Context, in domain.StudentInput) (*domain.Student, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("student name is required: %w", domain.ErrValidation)
	}
	var created domain.Student
	err := s.store.Update(func(st *store.State) error {
		created = st.InsertStudent(in)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// AddStudents creates one student per entry in input order.
func (s *service) AddStudents(ctx context.Context, in []domain.StudentInput) ([]domain.Student, error) {
	_, span := s.tracer.Start(ctx, "lending.add_students",
		trace.WithAttributes(attribute.Int("student.count", len(in))))
	defer span.End()

	if len(in) == 0 {
		return nil, fmt.Errorf("no students to add: %w", domain.ErrValidation)
	}
	for i, entry := range in {
		if strings.TrimSpace(entry.Name) == "" {
			return nil, fmt.Errorf("entry %d: student name is required: %w", i+1, domain.ErrValidation)
		}
	}

	created := make([]domain.Student, 0, len(in))
	err := s.store.Update(func(st *store.State) error {
		for _, entry := range in {
			created = append(created, st.InsertStudent(entry))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteStudent removes a student with no open loans.
func (s *service) DeleteStudent(ctx context.Context, studentID int) error {
	_, span := s.tracer.Start(ctx, "lending.delete_student",
		trace.WithAttributes(attribute.Int("student.id", studentID)))
	defer span.End()

	return s.store.Update(func(st *store.State) error {
		if st.FindStudent(studentID) == nil {
			return fmt.Errorf("student with ID %d: %w", studentID, domain.ErrNotFound)
		}
		if st.StudentHasOpenLoans(studentID) {
			return fmt.Errorf("student has active loans: %w", domain.ErrConflict)
		}
		st.RemoveStudent(studentID)
		return nil
	})
}

// BorrowBook lends an available book to a student. Date ordering and the
// loan span cap are enforced here, not left to the caller, so the
// invariants hold regardless of which surface issues the command.
func (s *service) BorrowBook(ctx context.Context, bookID, studentID int, borrowDate, dueDate domain.Date) (string, error) {
	ctx, span := s.tracer.Start(ctx, "lending.borrow",
		trace.WithAttributes(
			attribute.Int("book.id", bookID),
			attribute.Int("student.id", studentID),
			attribute.String("loan.due", dueDate.String()),
		),
	)
	defer span.End()

	if borrowDate.IsZero() || dueDate.IsZero() {
		return "", fmt.Errorf("borrow and due dates are required: %w", domain.ErrValidation)
	}
	if !dueDate.After(borrowDate) {
		return "", fmt.Errorf("due date must be after the borrow date: %w", domain.ErrValidation)
	}
	if borrowDate.DaysUntil(dueDate) > maxLoanDays {
		return "", fmt.Errorf("loan span must not exceed %d days: %w", maxLoanDays, domain.ErrValidation)
	}

	today := s.today()
	var message string
	err := s.store.Update(func(st *store.State) error {
		book := st.FindBook(bookID)
		if book == nil {
			return fmt.Errorf("book with ID %d: %w", bookID, domain.ErrNotFound)
		}
		if !book.IsAvailable {
			return fmt.Errorf("book %q is already on loan: %w", book.Title, domain.ErrUnavailable)
		}
		if st.FindStudent(studentID) == nil {
			return fmt.Errorf("student with ID %d: %w", studentID, domain.ErrNotFound)
		}

		overdue := 0
		for _, r := range st.Records {
			if r.StudentID == studentID && r.OverdueAt(today) {
				overdue++
			}
		}
		if overdue >= overdueLimit {
			return fmt.Errorf("student already has %d overdue books and cannot borrow more: %w",
				overdue, domain.ErrLimitExceeded)
		}

		record := st.AppendRecord(bookID, studentID, borrowDate, dueDate)
		book.IsAvailable = false
		message = fmt.Sprintf("Borrowed %q. Due back on %s.", book.Title, record.DueDate)
		return nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("loan.rejected", true))
		return "", err
	}
	s.borrowsTotal.Add(ctx, 1)
	return message, nil
}

// ReturnBook closes the open loan for the exact (book, student) pair. The
// record keeps its due date; only the return date is written, exactly once.
func (s *service) ReturnBook(ctx context.Context, bookID, studentID int) (string, error) {
	ctx, span := s.tracer.Start(ctx, "lending.return",
		trace.WithAttributes(
			attribute.Int("book.id", bookID),
			attribute.Int("student.id", studentID),
		),
	)
	defer span.End()

	today := s.today()
	var message string
	err := s.store.Update(func(st *store.State) error {
		if st.FindStudent(studentID) == nil {
			return fmt.Errorf("student with ID %d: %w", studentID, domain.ErrNotFound)
		}
		record := st.FindOpenRecord(bookID, studentID)
		if record == nil {
			return fmt.Errorf("no open loan for this book and student: %w", domain.ErrNotFound)
		}

		title := unknownBookLabel
		if book := st.FindBook(bookID); book != nil {
			book.IsAvailable = true
			title = book.Title
		}
		returned := today
		record.ReturnDate = &returned
		message = fmt.Sprintf("Returned %q. Thank you.", title)
		return nil
	})
	if err != nil {
		return "", err
	}
	s.returnsTotal.Add(ctx, 1)
	return message, nil
}

// DashboardStats aggregates the admin dashboard numbers. The top lists
// count every historical borrow, returned or not; ties keep the order in
// which a student or title first appears in the record log.
func (s *service) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	today := s.today()
	stats := &domain.DashboardStats{}
	s.store.View(func(st *store.State) {
		stats.TotalBooks = len(st.Books)
		stats.TotalStudents = len(st.Students)

		for _, r := range st.Records {
			if r.Open() {
				stats.BorrowedCount++
			}
			if r.OverdueAt(today) {
				stats.OverdueCount++
			}
		}

		// Counts key on the display name, so students sharing a name
		// merge into one row.
		nameIdx := make(map[string]int)
		for _, r := range st.Records {
			stu := st.FindStudent(r.StudentID)
			if stu == nil {
				continue
			}
			i, ok := nameIdx[stu.Name]
			if !ok {
				i = len(stats.TopStudents)
				nameIdx[stu.Name] = i
				stats.TopStudents = append(stats.TopStudents, domain.NameCount{Name: stu.Name})
			}
			stats.TopStudents[i].Count++
		}
		sort.SliceStable(stats.TopStudents, func(a, b int) bool {
			return stats.TopStudents[a].Count > stats.TopStudents[b].Count
		})
		if len(stats.TopStudents) > topListSize {
			stats.TopStudents = stats.TopStudents[:topListSize]
		}

		// Same for books: separate copies of a title count together.
		titleIdx := make(map[string]int)
		for _, r := range st.Records {
			book := st.FindBook(r.BookID)
			if book == nil {
				continue
			}
			i, ok := titleIdx[book.Title]
			if !ok {
				i = len(stats.TopBooks)
				titleIdx[book.Title] = i
				stats.TopBooks = append(stats.TopBooks, domain.TitleCount{Title: book.Title})
			}
			stats.TopBooks[i].Count++
		}
		sort.SliceStable(stats.TopBooks, func(a, b int) bool {
			return stats.TopBooks[a].Count > stats.TopBooks[b].Count
		})
		if len(stats.TopBooks) > topListSize {
			stats.TopBooks = stats.TopBooks[:topListSize]
		}
	})
	return stats, nil
}

// OverdueRecords lists every open, past-due loan, oldest due date first.
// Rows for entities that were deleted out from under their records fall
// back to sentinel labels instead of dropping the row.
func (s *service) OverdueRecords(ctx context.Context) ([]domain.OverdueRecordDetail, error) {
	today := s.today()
	var details []domain.OverdueRecordDetail
	s.store.View(func(st *store.State) {
		for _, r := range st.Records {
			if !r.OverdueAt(today) {
				continue
			}
			detail := domain.OverdueRecordDetail{
				RecordID:    r.ID,
				BookTitle:   unknownBookLabel,
				StudentName: unknownStudentLabel,
				DueDate:     r.DueDate,
			}
			if book := st.FindBook(r.BookID); book != nil {
				detail.BookTitle = book.Title
			}
			if stu := st.FindStudent(r.StudentID); stu != nil {
				detail.StudentName = stu.Name
			}
			details = append(details, detail)
		}
	})
	sort.SliceStable(details, func(a, b int) bool {
		return details[a].DueDate.Before(details[b].DueDate)
	})
	return details, nil
}
