package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		done, total int
		want        int
	}{
		{"empty run", 0, 0, 100},
		{"start", 0, 4, 0},
		{"rounds down", 1, 3, 33},
		{"rounds up", 2, 3, 67},
		{"half rounds up", 1, 8, 13},
		{"complete", 7, 7, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, percent(tt.done, tt.total))
		})
	}
}

func TestSummary_Completed(t *testing.T) {
	t.Parallel()

	assert.True(t, Summary{State: State{Cursor: 3, Total: 3}}.Completed())
	assert.False(t, Summary{State: State{Cursor: 2, Total: 3}}.Completed())
	assert.False(t, Summary{State: State{Cursor: 3, Total: 3}, Cancelled: true}.Completed())
	assert.False(t, Summary{Fatal: assert.AnError}.Completed())
}
