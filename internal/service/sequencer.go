package service

import "ridepool/internal/domain"

// VisitPoint is a pickup or dropoff waiting to be placed on a route.
// MatrixIndex is its row/column in the duration matrix; index 0 is the depot.
type VisitPoint struct {
	RequestID   string
	Kind        domain.StopKind
	Location    domain.Point
	MatrixIndex int
}

// Sequence orders points with a nearest feasible neighbour walk starting at
// the depot. A pickup is always feasible; a dropoff is feasible once its
// request is on board. Ties go to the earliest point in input order.
//
// The walk stops early when nothing is feasible, which only happens for a
// dropoff whose pickup is missing from points. The partial order is returned.
func Sequence(points []VisitPoint, durations [][]float64) []VisitPoint {
	out := make([]VisitPoint, 0, len(points))
	visited := make([]bool, len(points))
	onBoard := make(map[string]bool)
	current := 0

	for len(out) < len(points) {
		best := -1
		var bestCost float64

		for i, p := range points {
			if visited[i] {
				continue
			}
			if p.Kind == domain.StopKindDropoff && !onBoard[p.RequestID] {
				continue
			}
			cost := durations[current][p.MatrixIndex]
			if best == -1 || cost < bestCost {
				best, bestCost = i, cost
			}
		}

		if best == -1 {
			break
		}

		p := points[best]
		visited[best] = true
		switch p.Kind {
		case domain.StopKindPickup:
			onBoard[p.RequestID] = true
		case domain.StopKindDropoff:
			delete(onBoard, p.RequestID)
		}
		current = p.MatrixIndex
		out = append(out, p)
	}

	return out
}

// Unsequenced returns the ids of requests whose pickup or dropoff is missing
// from out, in input order without duplicates.
func Unsequenced(points, out []VisitPoint) []string {
	placed := make(map[string]int, len(out))
	for _, p := range out {
		placed[p.RequestID]++
	}

	seen := make(map[string]bool)
	var missing []string
	for _, p := range points {
		if seen[p.RequestID] {
			continue
		}
		seen[p.RequestID] = true
		if placed[p.RequestID] < 2 {
			missing = append(missing, p.RequestID)
		}
	}
	return missing
}

// visitPoints expands requests into [pickup₁, dropoff₁, pickup₂, ...] with
// matrix indices starting at 1.
func visitPoints(requests []*domain.Request) []VisitPoint {
	points := make([]VisitPoint, 0, 2*len(requests))
	for _, r := range requests {
		points = append(points,
			VisitPoint{RequestID: r.ID, Kind: domain.StopKindPickup, Location: r.Pickup, MatrixIndex: len(points) + 1},
			VisitPoint{RequestID: r.ID, Kind: domain.StopKindDropoff, Location: r.Dropoff, MatrixIndex: len(points) + 2},
		)
	}
	return points
}
