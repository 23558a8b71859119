package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator hands out time-ordered int64 ids.
type Generator interface {
	Next() int64
}

// Snowflake generates ids for one node. Node ids must be unique per process
// sharing a database.
type Snowflake struct {
	node *snowflake.Node
}

func NewSnowflake(nodeID int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("idgen: snowflake node %d: %w", nodeID, err)
	}
	return &Snowflake{node: node}, nil
}

func (s *Snowflake) Next() int64 {
	return s.node.Generate().Int64()
}
