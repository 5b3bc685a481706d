package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator issues time-ordered 64-bit ids. Each running instance must use
// a distinct node number (0-1023).
type Generator struct {
	node *snowflake.Node
}

// New creates a generator for the given node number.
func New(node int64) (*Generator, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", node, err)
	}
	return &Generator{node: n}, nil
}

// NextID returns a new unique id.
func (g *Generator) NextID() int64 {
	return g.node.Generate().Int64()
}
