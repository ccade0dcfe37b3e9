package docparse

import (
	"math"

	"github.com/hmatsuda/docparse/partition"
)

// Midpoint returns the centroid of a bounding polygon's vertices. An empty
// or absent polygon yields the origin; degenerate polygons (single point,
// collinear) are not rejected.
func Midpoint(points []partition.Point) partition.Point {
	if len(points) == 0 {
		return partition.Point{}
	}
	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(points))
	return partition.Point{X: sumX / n, Y: sumY / n}
}

func distance(a, b partition.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// MatchCaptions associates each image with the nearest caption positioned
// below it on the same page (caption midpoint Y strictly greater than the
// image's, y growing downward). Exactly one Match per image, in input
// order; CaptionID is empty when no caption qualifies.
//
// Distance ties go to the first caption in input order (strict "<"
// comparison), which keeps the result deterministic for identical input.
// A caption is not marked consumed, so two images may share one caption.
func MatchCaptions(images []ImageRecord, captions []CaptionRecord) []Match {
	matches := make([]Match, 0, len(images))
	for _, img := range images {
		imgMid := Midpoint(img.Coordinates)

		var best string
		bestDist := math.Inf(1)
		for _, c := range captions {
			if c.PageNumber != img.PageNumber {
				continue
			}
			capMid := Midpoint(c.Coordinates)
			if capMid.Y <= imgMid.Y {
				continue
			}
			if d := distance(imgMid, capMid); d < bestDist {
				bestDist = d
				best = c.ID
			}
		}
		matches = append(matches, Match{ImageID: img.ID, CaptionID: best})
	}
	return matches
}
