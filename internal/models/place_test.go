package models_test

import (
	"testing"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestReservedExtraKey(t *testing.T) {
	t.Run("no collision", func(t *testing.T) {
		key, ok := models.ReservedExtraKey(map[string]any{"opening_hours": "9-17", "phone": "123"})

		assert.False(t, ok)
		assert.Empty(t, key)
	})

	t.Run("nil map", func(t *testing.T) {
		_, ok := models.ReservedExtraKey(nil)

		assert.False(t, ok)
	})

	t.Run("first reserved key in sorted order", func(t *testing.T) {
		key, ok := models.ReservedExtraKey(map[string]any{"name": "x", "city": "y", "phone": "1"})

		assert.True(t, ok)
		assert.Equal(t, "city", key)
	})

	t.Run("object id", func(t *testing.T) {
		key, ok := models.ReservedExtraKey(map[string]any{"_id": 1})

		assert.True(t, ok)
		assert.Equal(t, "_id", key)
	})
}

func TestPlaceUpdate_IsEmpty(t *testing.T) {
	address := "Rua Nova"

	assert.True(t, models.PlaceUpdate{}.IsEmpty())
	assert.True(t, models.PlaceUpdate{ResetLocation: true}.IsEmpty())
	assert.False(t, models.PlaceUpdate{Address: &address}.IsEmpty())
}
