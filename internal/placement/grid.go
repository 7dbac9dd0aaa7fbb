package placement

import (
	"context"
	"fmt"
	"sync"

	"popballoons/internal/domain"
)

// Result tells where a candidate ended up.
type Result struct {
	Placed     bool
	X, Y       int
	Waitlisted string
}

// Placer assigns a freshly signed up candidate to the game grid.
type Placer interface {
	Place(ctx context.Context, candidate *domain.Candidate) (Result, error)
}

// Grid places candidates on the first free balloon in the upper half,
// scanning column by column. A full grid sends candidates to a waitlist
// keyed by gender.
type Grid struct {
	width, height int

	mu        sync.Mutex
	cells     [][]int64
	waitlists map[string][]int64
}

func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", width, height)
	}
	cells := make([][]int64, width)
	for x := range cells {
		cells[x] = make([]int64, height)
	}
	return &Grid{
		width:     width,
		height:    height,
		cells:     cells,
		waitlists: make(map[string][]int64),
	}, nil
}

func (g *Grid) Place(_ context.Context, candidate *domain.Candidate) (Result, error) {
	if candidate == nil || candidate.ID == 0 {
		return Result{}, fmt.Errorf("candidate must be persisted before placement")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for x := 0; x < g.width; x++ {
		for y := 0; y < g.height/2; y++ {
			if g.cells[x][y] == 0 {
				g.cells[x][y] = candidate.ID
				return Result{Placed: true, X: x, Y: y}, nil
			}
		}
	}

	list := "female"
	if candidate.Gender == "male" {
		list = "male"
	}
	g.waitlists[list] = append(g.waitlists[list], candidate.ID)
	return Result{Waitlisted: list}, nil
}

// Waitlist returns the candidate ids queued for a gender.
func (g *Grid) Waitlist(gender string) []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int64(nil), g.waitlists[gender]...)
}

var _ Placer = (*Grid)(nil)
