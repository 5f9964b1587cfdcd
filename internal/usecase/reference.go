package usecase

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

const maxReferenceAttempts = 5

// ReferenceGenerator issues human-facing booking references such as
// CSH1K3Z9QX0AB. Snowflake ids are time ordered and unique per node.
type ReferenceGenerator struct {
	node   *snowflake.Node
	prefix string
}

func NewReferenceGenerator(prefix string, nodeID int64) (*ReferenceGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("booking reference node %d: %w", nodeID, err)
	}
	return &ReferenceGenerator{node: node, prefix: strings.ToUpper(prefix)}, nil
}

func (g *ReferenceGenerator) Next() string {
	return g.prefix + strings.ToUpper(g.node.Generate().Base36())
}

// NewPaymentReference returns the reference handed to the gateway.
func NewPaymentReference() string {
	return "PAY-" + uuid.NewString()
}
