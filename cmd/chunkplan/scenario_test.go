package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fdtdgo/decomp/partitions"
)

const sampleScenario = `
min: [0, 0]
max: [100, 100]
resolution: 10
periodic: [true, false]
pml:
  - [10, 10]
  - [0, 0]
materials:
  - min: [20, 20]
    max: [40, 40]
    weight: 5
sources:
  - min: [50, 50]
    max: [51, 51]
chunks: 4
workers: 4
groups: 2
min_size: [5, 5]
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	s, err := loadScenario(writeScenario(t, sampleScenario))
	require.NoError(t, err)
	require.Equal(t, 4, s.Chunks)
	require.Equal(t, 4, s.Workers)
	require.Equal(t, []bool{true, false}, s.Periodic)
	require.Len(t, s.Materials, 1)

	req, err := s.request()
	require.NoError(t, err)
	require.Equal(t, [2]int{10, 10}, req.Spec.PMLCells[0])
	require.Equal(t, []int{5, 5}, req.MinSize)
	require.IsType(t, partitions.GreedyLoaded{}, req.Strategy)
}

func TestScenario_EndToEnd(t *testing.T) {
	s, err := loadScenario(writeScenario(t, sampleScenario))
	require.NoError(t, err)
	req, err := s.request()
	require.NoError(t, err)

	layout, err := partitions.Plan(req)
	require.NoError(t, err)
	require.Len(t, layout.Chunks, 4)
	require.NoError(t, layout.Validate())

	doc := layoutDoc(layout)
	require.Len(t, doc.Chunks, 4)
	require.Equal(t, []int{0, 0}, doc.Domain.Min)
	require.Equal(t, []int{100, 100}, doc.Domain.Max)
	require.Len(t, doc.CommVolumes, 4)
}

func TestScenario_BadStrategy(t *testing.T) {
	s, err := loadScenario(writeScenario(t, sampleScenario+"strategy: random\n"))
	require.NoError(t, err)
	_, err = s.request()
	require.Error(t, err)
}

func TestScenario_MissingFile(t *testing.T) {
	_, err := loadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestGroupsDoc(t *testing.T) {
	pg, err := partitions.DivideProcesses(5, 2)
	require.NoError(t, err)

	doc := groupsDoc(pg)
	require.Equal(t, 5, doc.Workers)
	require.Len(t, doc.Ranks, 5)
	require.Equal(t, groupEntry{Rank: 0, Group: 0, LocalRank: 0}, doc.Ranks[0])
	require.Equal(t, groupEntry{Rank: 3, Group: 1, LocalRank: 0}, doc.Ranks[3])
	require.Equal(t, groupEntry{Rank: 4, Group: 1, LocalRank: 1}, doc.Ranks[4])
}
