// internal/store/store.go
package store

import (
	"slices"
	"sync"

	"libralend/internal/domain"
)

// State holds the three collections and the id-allocation counters. It is
// only ever touched inside a Store.View or Store.Update callback.
type State struct {
	Books    []domain.Book
	Students []domain.Student
	Records  []domain.BorrowRecord

	nextBookID    int
	nextStudentID int
	nextRecordID  int
}

// Store owns all lending state. Every access runs under the store's lock,
// so each View or Update callback observes and applies a consistent state.
// The single writer lock is what keeps two concurrent borrow attempts
// against the same book from both succeeding.
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore builds a store around the given initial state. Id counters are
// seeded from the maximum existing id of each collection.
func NewStore(initial State) *Store {
	initial.nextBookID = maxID(initial.Books, func(b domain.Book) int { return b.ID }) + 1
	initial.nextStudentID = maxID(initial.Students, func(s domain.Student) int { return s.ID }) + 1
	initial.nextRecordID = maxID(initial.Records, func(r domain.BorrowRecord) int { return r.ID }) + 1
	return &Store{state: initial}
}

func maxID[T any](items []T, id func(T) int) int {
	max := 0
	for _, it := range items {
		if id(it) > max {
			max = id(it)
		}
	}
	return max
}

// View runs fn with read access to the state. fn must not retain or mutate
// anything it is handed; use the Copy helpers for data that escapes.
func (s *Store) View(fn func(*State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.state)
}

// Update runs fn with exclusive access to the state. If fn returns an
// error the command is considered failed; fn must not have mutated state
// on that path.
func (s *Store) Update(fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state)
}

// CopyBooks returns a snapshot of the book collection in stored order.
func (st *State) CopyBooks() []domain.Book {
	return slices.Clone(st.Books)
}

// CopyStudents returns a snapshot of the student roster in stored order.
func (st *State) CopyStudents() []domain.Student {
	return slices.Clone(st.Students)
}

// CopyRecords returns a snapshot of the borrow records in insertion order.
// ReturnDate pointers are deep-copied so callers never observe a later
// return through a previously listed record.
func (st *State) CopyRecords() []domain.BorrowRecord {
	out := slices.Clone(st.Records)
	for i := range out {
		if out[i].ReturnDate != nil {
			d := *out[i].ReturnDate
			out[i].ReturnDate = &d
		}
	}
	return out
}

// FindBook returns a pointer into the collection, or nil.
func (st *State) FindBook(id int) *domain.Book {
	for i := range st.Books {
		if st.Books[i].ID == id {
			return &st.Books[i]
		}
	}
	return nil
}

// FindStudent returns a pointer into the roster, or nil.
func (st *State) FindStudent(id int) *domain.Student {
	for i := range st.Students {
		if st.Students[i].ID == id {
			return &st.Students[i]
		}
	}
	return nil
}

// FindOpenRecord returns the open record for the exact (book, student)
// pair, or nil. At most one can exist.
func (st *State) FindOpenRecord(bookID, studentID int) *domain.BorrowRecord {
	for i := range st.Records {
		r := &st.Records[i]
		if r.BookID == bookID && r.StudentID == studentID && r.Open() {
			return r
		}
	}
	return nil
}

// BookOnLoan reports whether any open record references the book.
func (st *State) BookOnLoan(bookID int) bool {
	for _, r := range st.Records {
		if r.BookID == bookID && r.Open() {
			return true
		}
	}
	return false
}

// StudentHasOpenLoans reports whether any open record references the student.
func (st *State) StudentHasOpenLoans(studentID int) bool {
	for _, r := range st.Records {
		if r.StudentID == studentID && r.Open() {
			return true
		}
	}
	return false
}

// InsertBook allocates an id and prepends the book, so listings show the
// newest additions first.
func (st *State) InsertBook(in domain.BookInput) domain.Book {
	b := domain.Book{
		ID:          st.nextBookID,
		Title:       in.Title,
		Author:      in.Author,
		CoverImage:  in.CoverImage,
		IsAvailable: true,
	}
	st.nextBookID++
	st.Books = append([]domain.Book{b}, st.Books...)
	return b
}

// InsertStudent allocates an id and prepends the student.
func (st *State) InsertStudent(in domain.StudentInput) domain.Student {
	s := domain.Student{ID: st.nextStudentID, Name: in.Name}
	st.nextStudentID++
	st.Students = append([]domain.Student{s}, st.Students...)
	return s
}

// AppendRecord allocates an id and appends an open borrow record.
func (st *State) AppendRecord(bookID, studentID int, borrowDate, dueDate domain.Date) domain.BorrowRecord {
	r := domain.BorrowRecord{
		ID:         st.nextRecordID,
		BookID:     bookID,
		StudentID:  studentID,
		BorrowDate: borrowDate,
		DueDate:    dueDate,
	}
	st.nextRecordID++
	st.Records = append(st.Records, r)
	return r
}

// RemoveBook deletes the book and reports whether it existed.
func (st *State) RemoveBook(id int) bool {
	n := len(st.Books)
	st.Books = slices.DeleteFunc(st.Books, func(b domain.Book) bool { return b.ID == id })
	return len(st.Books) != n
}

// RemoveStudent deletes the student and reports whether it existed.
func (st *State) RemoveStudent(id int) bool {
	n := len(st.Students)
	st.Students = slices.DeleteFunc(st.Students, func(s domain.Student) bool { return s.ID == id })
	return len(st.Students) != n
}
