package detect

import "continue-clicker/pkg/geometry"

// MergeCoordinates clusters candidate click points that lie within tolerance
// of each other (Euclidean distance <= tolerance) and replaces each cluster
// with its integer-rounded centroid. Clustering is greedy: the first
// unprocessed point seeds a cluster and absorbs every other unprocessed
// point within tolerance of it. Output order follows the input order of the
// cluster seeds.
func MergeCoordinates(coords []geometry.PointInt, tolerance float64) []geometry.PointInt {
	if len(coords) == 0 {
		return nil
	}

	processed := make([]bool, len(coords))
	var merged []geometry.PointInt

	for i, seed := range coords {
		if processed[i] {
			continue
		}
		processed[i] = true
		cluster := []geometry.PointInt{seed}
		for j := i + 1; j < len(coords); j++ {
			if processed[j] {
				continue
			}
			if seed.Distance(coords[j]) <= tolerance {
				processed[j] = true
				cluster = append(cluster, coords[j])
			}
		}
		merged = append(merged, geometry.Centroid(cluster))
	}
	return merged
}
