package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{in: "", want: FilterAll},
		{in: "all", want: FilterAll},
		{in: "active", want: FilterActive},
		{in: "completed", want: FilterCompleted},
		{in: "done", wantErr: true},
		{in: "ALL", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFilter(tt.in)
		if tt.wantErr {
			assert.True(t, errors.Is(err, ErrUnknownFilter), "input %q", tt.in)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestValidDueDate(t *testing.T) {
	assert.True(t, ValidDueDate("2024-01-10"))
	assert.True(t, ValidDueDate("2024-13-40"))
	assert.False(t, ValidDueDate("2024/01/01"))
	assert.False(t, ValidDueDate("2024-1-1"))
	assert.False(t, ValidDueDate(""))
	assert.False(t, ValidDueDate(" 2024-01-10"))
}

func TestSummaryString(t *testing.T) {
	assert.Equal(t, "1 task • 0 completed", Summary{Total: 1}.String())
	assert.Equal(t, "3 tasks • 2 completed", Summary{Total: 3, Completed: 2}.String())
	assert.Equal(t, "0 tasks • 0 completed", Summary{}.String())
}
