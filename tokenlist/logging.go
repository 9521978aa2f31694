package tokenlist

import (
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

var zlog *zap.Logger

func init() {
	zlog, _ = logging.PackageLogger("tokenlist", "github.com/streamingfast/defi-subgraphs/tokenlist")
}
