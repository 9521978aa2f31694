package networks

import (
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

var zlog *zap.Logger

func init() {
	zlog, _ = logging.PackageLogger("networks", "github.com/streamingfast/defi-subgraphs/networks")
}
