// internal/textimport/adapter.go
package textimport

import (
	"context"
	"errors"

	"libralend/internal/domain"
)

// ErrParseFailure means the adapter could not turn free text into
// structured records. It is the only fault the import surface reports.
var ErrParseFailure = errors.New("could not parse structured records from text")

// Parser converts pasted free-form text into candidate records. The
// lending service treats the output as ordinary untrusted input and
// re-validates it in its bulk-add commands.
type Parser interface {
	ParseBooks(ctx context.Context, text string) ([]domain.BookInput, error)
	ParseStudents(ctx context.Context, text string) ([]domain.StudentInput, error)
}
