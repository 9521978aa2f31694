package chain

import (
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

var zlog *zap.Logger

func init() {
	zlog, _ = logging.PackageLogger("chain", "github.com/streamingfast/defi-subgraphs/chain")
}
