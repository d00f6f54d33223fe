package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testBundle() *ContextBundle {
	return &ContextBundle{
		Interest: "retail sales",
		Occupations: []RetrievedChunk{
			{ChunkID: "occ-1", Score: 0.9, Source: SourceOccupation},
			{ChunkID: "occ-2", Score: 0.8, Source: SourceOccupation},
		},
		Standards: []RetrievedChunk{
			{ChunkID: "std-1", Score: 0.7, Source: SourceStandard},
		},
		Examples: []RetrievedChunk{
			{ChunkID: "ex-1", Score: 0.6, Source: SourceExample},
		},
	}
}

// TestContextBundle_Group tests per-category access
func TestContextBundle_Group(t *testing.T) {
	b := testBundle()

	assert.Len(t, b.Group(SourceOccupation), 2)
	assert.Len(t, b.Group(SourceStandard), 1)
	assert.Len(t, b.Group(SourceExample), 1)
	assert.Nil(t, b.Group(SourceCategory("nope")))
}

// TestContextBundle_All verifies canonical group order in flattened output
func TestContextBundle_All(t *testing.T) {
	b := testBundle()

	all := b.All()

	assert.Len(t, all, 4)
	assert.Equal(t, "occ-1", all[0].ChunkID)
	assert.Equal(t, "occ-2", all[1].ChunkID)
	assert.Equal(t, "std-1", all[2].ChunkID)
	assert.Equal(t, "ex-1", all[3].ChunkID)
}

// TestContextBundle_TotalAndEmpty tests counting helpers
func TestContextBundle_TotalAndEmpty(t *testing.T) {
	b := testBundle()
	assert.Equal(t, 4, b.Total())
	assert.False(t, b.Empty())

	empty := &ContextBundle{Interest: "welding"}
	assert.Equal(t, 0, empty.Total())
	assert.True(t, empty.Empty())
}

// TestCategoryCounts tests per-category accumulation
func TestCategoryCounts(t *testing.T) {
	var c CategoryCounts

	c.Add(SourceOccupation, 3)
	c.Add(SourceStandard, 2)
	c.Add(SourceExample, 1)
	c.Add(SourceCategory("nope"), 99)

	assert.Equal(t, 3, c.Occupations)
	assert.Equal(t, 2, c.Standards)
	assert.Equal(t, 1, c.Examples)
	assert.Equal(t, 6, c.Total())
}
