package theme

import (
	"context"
	"slices"
)

// MaxResolveRounds bounds the number of BFS layers expanded by Resolve.
// Relation chains deeper than this are truncated.
const MaxResolveRounds = 5

// NeighbourFunc returns the ids adjacent to any id in frontier, in whichever
// direction the caller has bound it to. Duplicates are allowed.
type NeighbourFunc func(ctx context.Context, frontier []int64) ([]int64, error)

// Resolution is the outcome of a graph traversal.
type Resolution struct {
	// IDs in discovery order: BFS layer, then ascending id within a layer.
	// The root is never included.
	IDs []int64

	// Rounds is the number of neighbour queries issued.
	Rounds int

	// Truncated is set when the round cap stopped a non-empty frontier.
	Truncated bool
}

// Resolve expands the graph from root one layer per round until a round
// discovers nothing new or MaxResolveRounds is reached. The visited set makes
// it safe on cyclic graphs.
func Resolve(ctx context.Context, root int64, next NeighbourFunc) (Resolution, error) {
	var res Resolution
	if root == 0 {
		return res, nil
	}

	visited := map[int64]struct{}{root: {}}
	frontier := []int64{root}

	for len(frontier) > 0 && res.Rounds < MaxResolveRounds {
		res.Rounds++

		found, err := next(ctx, frontier)
		if err != nil {
			return Resolution{}, err
		}

		var added []int64
		for _, id := range found {
			if _, seen := visited[id]; seen {
				continue
			}
			visited[id] = struct{}{}
			added = append(added, id)
		}
		slices.Sort(added)

		res.IDs = append(res.IDs, added...)
		frontier = added
	}

	res.Truncated = len(frontier) > 0
	return res, nil
}
