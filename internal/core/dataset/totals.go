// Package dataset derives the aggregate counters of a dataset from its items.
package dataset

import "math"

const bytesPerMB = 1024 * 1024

// Totals are the materialized aggregates stored on a dataset.
type Totals struct {
	TotalItems  int
	TotalSizeMB float64
}

// Recount derives the totals from the byte sizes of every item in the dataset.
func Recount(sizes []int64) Totals {
	var sum int64
	for _, s := range sizes {
		sum += s
	}
	return Totals{
		TotalItems:  len(sizes),
		TotalSizeMB: math.Round(float64(sum)/bytesPerMB*100) / 100,
	}
}
