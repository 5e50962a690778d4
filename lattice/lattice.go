package lattice

import (
	"fmt"
	"io"
	"strings"

	"github.com/banachtech/option-pricer/errs"
)

// Lattice is a triangular recombining tree. Level n holds n+1 nodes, so a
// lattice of depth d stores (d+1)(d+2)/2 values. It is not safe for
// concurrent writers.
type Lattice[T any] struct {
	depth int
	nodes [][]T
}

// New returns a lattice of the given depth with every node zero valued.
func New[T any](depth int) (*Lattice[T], error) {
	l := &Lattice[T]{}
	if err := l.SetDepth(depth); err != nil {
		return nil, err
	}
	return l, nil
}

// SetDepth reallocates the lattice. Previous contents are discarded even when
// the depth does not change.
func (l *Lattice[T]) SetDepth(depth int) error {
	if depth < 0 {
		return fmt.Errorf("lattice: depth %d must be >= 0: %w", depth, errs.ErrInvalidArgument)
	}
	l.depth = depth
	l.nodes = make([][]T, depth+1)
	for n := range l.nodes {
		l.nodes[n] = make([]T, n+1)
	}
	return nil
}

// Depth returns the index of the last level.
func (l *Lattice[T]) Depth() int {
	return l.depth
}

func (l *Lattice[T]) check(n, i int) error {
	if n < 0 || n > l.depth || i < 0 || i > n || len(l.nodes) == 0 {
		return fmt.Errorf("lattice: node (%d,%d) outside depth %d: %w", n, i, l.depth, errs.ErrOutOfRange)
	}
	return nil
}

// SetNode stores v at level n, position i.
func (l *Lattice[T]) SetNode(n, i int, v T) error {
	if err := l.check(n, i); err != nil {
		return err
	}
	l.nodes[n][i] = v
	return nil
}

// Node returns the value at level n, position i.
func (l *Lattice[T]) Node(n, i int) (T, error) {
	var zero T
	if err := l.check(n, i); err != nil {
		return zero, err
	}
	return l.nodes[n][i], nil
}

// Level returns a copy of level n.
func (l *Lattice[T]) Level(n int) ([]T, error) {
	if err := l.check(n, 0); err != nil {
		return nil, err
	}
	out := make([]T, n+1)
	copy(out, l.nodes[n])
	return out, nil
}

func (l *Lattice[T]) width() int {
	w := 1
	for _, level := range l.nodes {
		for _, v := range level {
			if s := len(fmt.Sprint(v)); s > w {
				w = s
			}
		}
	}
	return w
}

// Display writes the lattice as a centred triangle, root first, with a row of
// "/ \" connectors under every level but the last. Values are separated so
// that each one starts width+2 columns after the previous (at least one
// space), and level n is indented by (depth-n)*(width+2)/2.
func (l *Lattice[T]) Display(w io.Writer) error {
	gap := l.width() + 2
	var sb strings.Builder
	for n, level := range l.nodes {
		indent := (l.depth - n) * gap / 2
		sb.WriteString(strings.Repeat(" ", indent))
		for i, v := range level {
			s := fmt.Sprint(v)
			sb.WriteString(s)
			if i < n {
				sb.WriteString(strings.Repeat(" ", max(gap-len(s), 1)))
			}
		}
		sb.WriteByte('\n')

		if n < l.depth {
			sb.WriteString(strings.Repeat(" ", max(indent-1, 0)))
			for i := 0; i <= n; i++ {
				sb.WriteString(`/ \`)
				if i < n {
					sb.WriteString(strings.Repeat(" ", gap-1))
				}
			}
			sb.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
