// internal/store/sample.go
package store

import (
	"time"

	"libralend/internal/domain"
)

func date(y int, m time.Month, d int) domain.Date { return domain.NewDate(y, m, d) }

func returned(y int, m time.Month, d int) *domain.Date {
	v := domain.NewDate(y, m, d)
	return &v
}

// SampleState is the demo dataset the service ships with: eight books, four
// students and seven borrow records, four of them still open (one overdue).
func SampleState() State {
	return State{
		Books: []domain.Book{
			{ID: 1, Title: "The Lord of the Rings", Author: "J.R.R. Tolkien", CoverImage: "https://picsum.photos/id/10/300/400", IsAvailable: false},
			{ID: 2, Title: "Pride and Prejudice", Author: "Jane Austen", CoverImage: "https://picsum.photos/id/20/300/400", IsAvailable: true},
			{ID: 3, Title: "The Hitchhiker's Guide to the Galaxy", Author: "Douglas Adams", CoverImage: "https://picsum.photos/id/30/300/400", IsAvailable: true},
			{ID: 4, Title: "To Kill a Mockingbird", Author: "Harper Lee", CoverImage: "https://picsum.photos/id/40/300/400", IsAvailable: false},
			{ID: 5, Title: "1984", Author: "George Orwell", CoverImage: "https://picsum.photos/id/50/300/400", IsAvailable: true},
			{ID: 6, Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", CoverImage: "https://picsum.photos/id/60/300/400", IsAvailable: false},
			{ID: 7, Title: "Moby Dick", Author: "Herman Melville", CoverImage: "https://picsum.photos/id/70/300/400", IsAvailable: true},
			{ID: 8, Title: "War and Peace", Author: "Leo Tolstoy", CoverImage: "https://picsum.photos/id/80/300/400", IsAvailable: false},
		},
		Students: []domain.Student{
			{ID: 1, Name: "Alice"},
			{ID: 2, Name: "Bob"},
			{ID: 3, Name: "Charlie"},
			{ID: 4, Name: "Diana"},
		},
		Records: []domain.BorrowRecord{
			{ID: 1, StudentID: 1, BookID: 1, BorrowDate: date(2024, 5, 1), DueDate: date(2024, 5, 15)},
			{ID: 2, StudentID: 2, BookID: 4, BorrowDate: date(2024, 4, 20), DueDate: date(2024, 5, 4)},
			{ID: 3, StudentID: 3, BookID: 6, BorrowDate: date(2024, 5, 10), DueDate: date(2024, 5, 24)},
			{ID: 4, StudentID: 1, BookID: 8, BorrowDate: date(2024, 5, 12), DueDate: date(2024, 5, 26)},
			{ID: 5, StudentID: 2, BookID: 1, BorrowDate: date(2024, 4, 15), DueDate: date(2024, 4, 29), ReturnDate: returned(2024, 4, 28)},
			{ID: 6, StudentID: 4, BookID: 4, BorrowDate: date(2024, 3, 1), DueDate: date(2024, 3, 15), ReturnDate: returned(2024, 3, 14)},
			{ID: 7, StudentID: 1, BookID: 6, BorrowDate: date(2024, 4, 1), DueDate: date(2024, 4, 15), ReturnDate: returned(2024, 4, 14)},
		},
	}
}
