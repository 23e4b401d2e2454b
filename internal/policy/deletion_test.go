package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/anonto42/discussion-tree/backend/internal/models"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func deletedAt(ts time.Time) *models.Comment {
	return &models.Comment{CreatedAt: t0, IsDeleted: true, DeletedAt: &ts}
}

func TestCanEdit(t *testing.T) {
	c := &models.Comment{CreatedAt: t0}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"just posted", t0, true},
		{"14:59 later", t0.Add(14*time.Minute + 59*time.Second), true},
		{"exactly 15 minutes", t0.Add(15 * time.Minute), false},
		{"15:01 later", t0.Add(15*time.Minute + time.Second), false},
		{"next day", t0.Add(24 * time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanEdit(c, tt.now))
		})
	}
}

func TestCanRestore(t *testing.T) {
	t.Run("never deleted", func(t *testing.T) {
		assert.False(t, CanRestore(&models.Comment{CreatedAt: t0}, t0))
	})

	t.Run("flag without timestamp", func(t *testing.T) {
		assert.False(t, CanRestore(&models.Comment{CreatedAt: t0, IsDeleted: true}, t0))
	})

	t.Run("timestamp without flag", func(t *testing.T) {
		ts := t0
		assert.False(t, CanRestore(&models.Comment{CreatedAt: t0, DeletedAt: &ts}, t0))
	})

	t.Run("inside window", func(t *testing.T) {
		assert.True(t, CanRestore(deletedAt(t0), t0.Add(10*time.Minute)))
		assert.True(t, CanRestore(deletedAt(t0), t0.Add(14*time.Minute+59*time.Second)))
	})

	t.Run("outside window", func(t *testing.T) {
		assert.False(t, CanRestore(deletedAt(t0), t0.Add(15*time.Minute)))
		assert.False(t, CanRestore(deletedAt(t0), t0.Add(16*time.Minute)))
	})
}

func TestIsAuthor(t *testing.T) {
	c := &models.Comment{AuthorID: "alice"}

	assert.True(t, IsAuthor(c, "alice"))
	assert.False(t, IsAuthor(c, "bob"))
	assert.False(t, IsAuthor(&models.Comment{}, ""))
}

func TestCutoffs(t *testing.T) {
	assert.Equal(t, t0.Add(-15*time.Minute), RestoreCutoff(t0))
	assert.Equal(t, t0.Add(-30*24*time.Hour), PurgeCutoff(t0, 0))
	assert.Equal(t, t0.Add(-time.Hour), PurgeCutoff(t0, time.Hour))
}
