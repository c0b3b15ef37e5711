package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fdtdgo/decomp/partitions"
)

// chunkDoc is the serialized form of one chunk
type chunkDoc struct {
	ID        int     `yaml:"id"`
	Min       []int   `yaml:"min"`
	Max       []int   `yaml:"max"`
	Cost      float64 `yaml:"cost"`
	Owner     int     `yaml:"owner"`
	Neighbors []int   `yaml:"neighbors,flow"`
}

type layoutFile struct {
	Domain struct {
		Min []int `yaml:"min"`
		Max []int `yaml:"max"`
	} `yaml:"domain"`
	Workers int        `yaml:"workers"`
	Chunks  []chunkDoc `yaml:"chunks"`

	// commVolumes[i][j] is the halo traffic in cells between chunks i and j
	CommVolumes [][]int `yaml:"comm_volumes,flow"`
}

func layoutDoc(cl *partitions.ChunkLayout) *layoutFile {
	doc := &layoutFile{Workers: cl.NumWorkers}
	nd := cl.Domain.NDims
	doc.Domain.Min = append([]int(nil), cl.Domain.Min[:nd]...)
	doc.Domain.Max = append([]int(nil), cl.Domain.Max[:nd]...)

	n := len(cl.Chunks)
	doc.CommVolumes = make([][]int, n)
	for i, c := range cl.Chunks {
		neighbors := c.Neighbors
		if neighbors == nil {
			neighbors = []int{}
		}
		doc.Chunks = append(doc.Chunks, chunkDoc{
			ID:        c.ID,
			Min:       append([]int(nil), c.Volume.Min[:nd]...),
			Max:       append([]int(nil), c.Volume.Max[:nd]...),
			Cost:      c.Cost,
			Owner:     c.Owner,
			Neighbors: neighbors,
		})
		doc.CommVolumes[i] = make([]int, n)
		for j := 0; j < n; j++ {
			doc.CommVolumes[i][j] = cl.CommVolume(i, j)
		}
	}
	return doc
}

type groupEntry struct {
	Rank      int `yaml:"rank"`
	Group     int `yaml:"group"`
	LocalRank int `yaml:"local_rank"`
}

type groupsFile struct {
	Workers int          `yaml:"workers"`
	Groups  int          `yaml:"groups"`
	Ranks   []groupEntry `yaml:"ranks"`
}

func groupsDoc(pg *partitions.ProcessGroups) *groupsFile {
	doc := &groupsFile{Workers: pg.NumWorkers, Groups: pg.NumGroups}
	for rank := 0; rank < pg.NumWorkers; rank++ {
		g, local, err := pg.Locate(rank)
		if err != nil {
			continue
		}
		doc.Ranks = append(doc.Ranks, groupEntry{Rank: rank, Group: g, LocalRank: local})
	}
	return doc
}

func writeOutput(path string, doc interface{}) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	if path == "-" || path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
