package monitor

import (
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

var zlog *zap.Logger

func init() {
	zlog, _ = logging.PackageLogger("monitor", "github.com/streamingfast/defi-subgraphs/monitor")
}
