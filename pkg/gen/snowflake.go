package gen

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("snowflake", fx.Provide(ProvideNode))

// ProvideNode builds the ID node from SNOWFLAKE_NODE_ID (default 1). Every
// replica must run with a distinct node id.
func ProvideNode() (*snowflake.Node, error) {
	nodeID := int64(1)
	if v, ok := os.LookupEnv("SNOWFLAKE_NODE_ID"); ok {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		nodeID = parsed
	}

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		zap.L().Error("failed to init snowflake node", zap.Int64("node_id", nodeID), zap.Error(err))
		return nil, err
	}
	return node, nil
}
