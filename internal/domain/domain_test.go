// internal/domain/domain_test.go
package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateParseAndString(t *testing.T) {
	d, err := ParseDate("2024-05-04")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-04", d.String())

	_, err = ParseDate("04/05/2024")
	assert.Error(t, err)
}

func TestDateComparisons(t *testing.T) {
	a := NewDate(2024, time.May, 4)
	b := NewDate(2024, time.June, 1)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.Equal(NewDate(2024, time.May, 4)))
	assert.Equal(t, 28, a.DaysUntil(b))
	assert.Equal(t, -28, b.DaysUntil(a))
}

func TestDateOfTruncates(t *testing.T) {
	instant := time.Date(2024, time.June, 1, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "2024-06-01", DateOf(instant).String())
}

func TestDateJSONRoundTrip(t *testing.T) {
	type payload struct {
		Due    Date  `json:"due"`
		Return *Date `json:"ret"`
	}

	data, err := json.Marshal(payload{Due: NewDate(2024, time.May, 15)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2024-05-15","ret":null}`, string(data))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2024-05-15","ret":"2024-05-20"}`), &decoded))
	assert.Equal(t, "2024-05-15", decoded.Due.String())
	require.NotNil(t, decoded.Return)
	assert.Equal(t, "2024-05-20", decoded.Return.String())

	assert.Error(t, json.Unmarshal([]byte(`{"due":"not-a-date"}`), &decoded))
}

func TestRecordOverdueAt(t *testing.T) {
	due := NewDate(2024, time.May, 4)
	open := BorrowRecord{DueDate: due}
	assert.True(t, open.OverdueAt(NewDate(2024, time.June, 1)))
	assert.False(t, open.OverdueAt(due), "not overdue on the due date itself")

	returned := due
	closed := BorrowRecord{DueDate: due, ReturnDate: &returned}
	assert.False(t, closed.OverdueAt(NewDate(2024, time.June, 1)))
}
