package evaluator

import (
	"testing"

	"github.com/rxnen/eldersafe/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureRooms(t *testing.T) []models.Room {
	t.Helper()
	room := newRoom(t, 0, models.RoomKitchen, []int{0}, false)
	require.True(t, room.SetStatus(1, models.StatusInProgress, "H1", t0))
	return []models.Room{room}
}

func questionIDs(items []HazardItem) []int {
	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.QuestionID)
	}
	return ids
}

func TestComputeHazardList_GroupsByTier(t *testing.T) {
	e := newFixtureEngine(t)
	rooms := fixtureRooms(t)

	sections := e.ComputeHazardList(rooms, &models.Profile{Mobility: models.MobilityWalker})
	require.Len(t, sections, 2, "empty medium section is omitted")

	assert.Equal(t, TierHigh, sections[0].Importance)
	assert.Equal(t, "High Risk", sections[0].Title)
	assert.Equal(t, []int{0}, questionIDs(sections[0].Data))
	assert.Equal(t, models.StatusAddressed, sections[0].Data[0].Status)

	assert.Equal(t, TierLow, sections[1].Importance)
	assert.Equal(t, []int{1, 2, 3}, questionIDs(sections[1].Data))

	item := sections[1].Data[0]
	assert.Equal(t, "My Kitchen", item.RoomName)
	assert.Equal(t, models.RoomKitchen, item.RoomType)
	assert.Equal(t, "cutlery", item.Icon)
	assert.Equal(t, "H1", item.Hazard)
	assert.Equal(t, models.StatusInProgress, item.Status)
}

func TestComputeHazardList_SkipsExcluded(t *testing.T) {
	e := newFixtureEngine(t)

	sections := e.ComputeHazardList(fixtureRooms(t), nil)
	require.Len(t, sections, 1)
	assert.Equal(t, []int{0, 1, 2}, questionIDs(sections[0].Data))

	assert.Empty(t, e.ComputeHazardList(nil, nil))
}

func TestFilterHazards(t *testing.T) {
	e := newFixtureEngine(t)
	sections := e.ComputeHazardList(fixtureRooms(t), &models.Profile{Mobility: models.MobilityWalker})

	active := FilterHazards(sections, FilterActive)
	require.Len(t, active, 1)
	assert.Equal(t, TierLow, active[0].Importance)
	assert.Equal(t, []int{1, 2, 3}, questionIDs(active[0].Data))

	assert.Equal(t, sections, FilterHazards(sections, FilterAll))

	inProgress := FilterHazards(sections, HazardFilter(models.StatusInProgress))
	require.Len(t, inProgress, 1)
	assert.Equal(t, []int{1}, questionIDs(inProgress[0].Data))

	addressed := FilterHazards(sections, HazardFilter(models.StatusAddressed))
	require.Len(t, addressed, 1)
	assert.Equal(t, TierHigh, addressed[0].Importance)

	assert.Len(t, sections[1].Data, 3, "input is not modified")
}

func TestParseHazardFilter(t *testing.T) {
	tests := []struct {
		in   string
		want HazardFilter
		ok   bool
	}{
		{"", FilterActive, true},
		{"active", FilterActive, true},
		{"all", FilterAll, true},
		{"not_addressed", HazardFilter(models.StatusNotAddressed), true},
		{"done", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseHazardFilter(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestComputeHazardStats(t *testing.T) {
	e := newFixtureEngine(t)
	rooms := fixtureRooms(t)

	stats := e.ComputeHazardStats(rooms, &models.Profile{Mobility: models.MobilityCane})
	assert.Equal(t, HazardStats{Total: 4, InProgress: 1, Fixed: 1, NotAddressed: 2, Percentage: 25}, stats)

	stats = e.ComputeHazardStats(rooms, nil)
	assert.Equal(t, HazardStats{Total: 3, InProgress: 1, Fixed: 1, NotAddressed: 1, Percentage: 33}, stats)

	assert.Equal(t, HazardStats{}, e.ComputeHazardStats(nil, nil))
}

func TestRoomReport(t *testing.T) {
	e := newFixtureEngine(t)
	room := newRoom(t, 0, models.RoomKitchen, []int{0}, false)

	report := e.RoomReport(&room, nil)
	require.Len(t, report, 2)
	assert.Equal(t, "H1", report[0].Hazard)
	assert.Equal(t, "H2", report[1].Hazard)

	report = e.RoomReport(&room, &models.Profile{Mobility: models.MobilityWheelchair})
	assert.Len(t, report, 3)
}
