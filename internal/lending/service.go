// internal/lending/service.go
package lending

import (
	"context"

	"libralend/internal/domain"
)

// Service defines the interface for the lending service.
type Service interface {
	ListBooks(ctx context.Context) ([]domain.Book, error)
	ListStudents(ctx context.Context) ([]domain.Student, error)
	ListBorrowRecords(ctx context.Context) ([]domain.BorrowRecord, error)

	AddBook(ctx context.Context, in domain.BookInput) (*domain.Book, error)
	AddBooks(ctx context.Context, in []domain.BookInput) ([]domain.Book, error)
	DeleteBook(ctx context.Context, bookID int) error

	AddStudent(ctx context.Context, in domain.StudentInput) (*domain.Student, error)
	AddStudents(ctx context.Context, in []domain.StudentInput) ([]domain.Student, error)
	DeleteStudent(ctx context.Context, studentID int) error

	BorrowBook(ctx context.Context, bookID, studentID int, borrowDate, dueDate domain.Date) (string, error)
	ReturnBook(ctx context.Context, bookID, studentID int) (string, error)

	DashboardStats(ctx context.Context) (*domain.DashboardStats, error)
	OverdueRecords(ctx context.Context) ([]domain.OverdueRecordDetail, error)
}
