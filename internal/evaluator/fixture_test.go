package evaluator

import (
	"testing"
	"time"

	"github.com/rxnen/eldersafe/internal/catalog"
	"github.com/rxnen/eldersafe/internal/models"
	"github.com/stretchr/testify/require"
)

var t0 = time.UnixMilli(1_700_000_000_000)

// kitchenYAML 四个问题：0 对行动辅助重要，1 对视力重要，2 对听力重要，3 仅在使用行动辅助时适用
const kitchenYAML = `
rooms:
  - type: Kitchen
    questions:
      - question: Q0?
        hazard: H0
      - question: Q1?
        hazard: H1
      - question: Q2?
        hazard: H2
      - question: Q3?
        hazard: H3
    products:
      - hazard_id: 0
        name: P0
      - hazard_id: 1
        name: P1
      - hazard_id: 3
        name: P3
exclusions:
  - id: 3
    room: Kitchen
    attribute: mobility
important:
  mobility:
    - room: Kitchen
      id: 0
  vision:
    - room: Kitchen
      question: Q1?
  hearing:
    - room: Kitchen
      id: 2
`

func newFixtureEngine(t *testing.T) *Engine {
	t.Helper()
	c, err := catalog.Parse([]byte(kitchenYAML))
	require.NoError(t, err)
	return NewEngine(c)
}

func newDefaultEngine(t *testing.T) *Engine {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return NewEngine(c)
}

func newRoom(t *testing.T, id int, rt models.RoomType, answers []int, primary bool) models.Room {
	t.Helper()
	room, err := models.NewRoom(id, rt, "", answers, primary, t0)
	require.NoError(t, err)
	return room
}
