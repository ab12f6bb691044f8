// internal/domain/domain.go
package domain

import (
	"fmt"
	"time"
)

// Book is a single physical book in the catalog. A book is unavailable
// exactly while one open borrow record references it.
type Book struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	CoverImage  string `json:"coverImage"`
	IsAvailable bool   `json:"isAvailable"`
}

// Student is a member of the roster, identified by an integer id.
type Student struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// BorrowRecord ties a book to the student holding it. A nil ReturnDate
// means the loan is still open. Records are never deleted.
type BorrowRecord struct {
	ID         int    `json:"id"`
	BookID     int    `json:"bookId"`
	StudentID  int    `json:"studentId"`
	BorrowDate Date   `json:"borrowDate"`
	DueDate    Date   `json:"dueDate"`
	ReturnDate *Date  `json:"returnDate"`
}

// Open reports whether the loan has not been returned yet.
func (r BorrowRecord) Open() bool {
	return r.ReturnDate == nil
}

// OverdueAt reports whether the loan is open and past due on the given day.
// Overdue is always derived from the due date, never stored.
func (r BorrowRecord) OverdueAt(today Date) bool {
	return r.Open() && r.DueDate.Before(today)
}

// BookInput is a candidate book for creation, either from the admin form
// or from the text-import adapter.
type BookInput struct {
	Title      string `json:"title"`
	Author     string `json:"author"`
	CoverImage string `json:"coverImage"`
}

// StudentInput is a candidate student for creation.
type StudentInput struct {
	Name string `json:"name"`
}

// NameCount ranks a student by total historical borrow count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TitleCount ranks a book title by total historical borrow count.
type TitleCount struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

// DashboardStats is the aggregate view shown on the admin dashboard.
type DashboardStats struct {
	TotalBooks    int          `json:"totalBooks"`
	TotalStudents int          `json:"totalStudents"`
	BorrowedCount int          `json:"borrowedCount"`
	OverdueCount  int          `json:"overdueCount"`
	TopStudents   []NameCount  `json:"topStudents"`
	TopBooks      []TitleCount `json:"topBooks"`
}

// OverdueRecordDetail is one row of the overdue report. Title and name fall
// back to sentinel labels when the referenced entity no longer exists.
type OverdueRecordDetail struct {
	RecordID    int    `json:"recordId"`
	BookTitle   string `json:"bookTitle"`
	StudentName string `json:"studentName"`
	DueDate     Date   `json:"dueDate"`
}

const dateLayout = "2006-01-02"

// Date is a calendar date with day precision. It serializes as "2006-01-02"
// and compares on whole days, so "strictly before today" never depends on
// the time of day a query runs.
type Date struct {
	t time.Time
}

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

func (d Date) String() string     { return d.t.Format(dateLayout) }
func (d Date) IsZero() bool       { return d.t.IsZero() }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// DaysUntil returns the number of whole days from d to o.
func (d Date) DaysUntil(o Date) int {
	return int(o.t.Sub(d.t) / (24 * time.Hour))
}

// MarshalJSON encodes the date as a quoted "2006-01-02" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.t.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON decodes a quoted "2006-01-02" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
