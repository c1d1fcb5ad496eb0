package evaluator

import (
	"testing"

	"github.com/rxnen/eldersafe/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRecommendations(t *testing.T) {
	e := newFixtureEngine(t)
	rooms := []models.Room{
		newRoom(t, 0, models.RoomKitchen, []int{0}, false),
		newRoom(t, 1, models.RoomKitchen, []int{0, 1, 2, 3}, false),
	}

	recs := e.ComputeRecommendations(rooms, nil)
	require.Len(t, recs, 1, "fully resolved room is omitted")
	assert.Equal(t, 0, recs[0].RoomID)
	assert.Equal(t, "My Kitchen", recs[0].Title)
	require.Len(t, recs[0].Data, 2)

	assert.Equal(t, "P1", recs[0].Data[0].Name)
	assert.Equal(t, 1, recs[0].Data[0].HazardID)
	assert.Equal(t, "low", recs[0].Data[0].Importance)
	assert.Equal(t, "Good to Have", recs[0].Data[0].Label)

	assert.Equal(t, "P3", recs[0].Data[1].Name)
	assert.Empty(t, recs[0].Data[1].Importance, "excluded question carries no importance")
}

func TestComputeRecommendations_Importance(t *testing.T) {
	e := newFixtureEngine(t)
	rooms := []models.Room{newRoom(t, 3, models.RoomKitchen, nil, true)}

	recs := e.ComputeRecommendations(rooms, &models.Profile{Vision: true, Mobility: models.MobilityCane})
	require.Len(t, recs, 1)
	require.Len(t, recs[0].Data, 3)
	assert.Equal(t, "high", recs[0].Data[0].Importance)
	assert.Equal(t, "high", recs[0].Data[1].Importance)
	assert.Equal(t, "medium", recs[0].Data[2].Importance)
	assert.Equal(t, "Important", recs[0].Data[2].Label)
}

func TestComputeRecommendations_Empty(t *testing.T) {
	e := newFixtureEngine(t)
	assert.Empty(t, e.ComputeRecommendations(nil, nil))
}
