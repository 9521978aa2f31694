package loader

import (
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

var zlog *zap.Logger

func init() {
	zlog, _ = logging.PackageLogger("loader", "github.com/streamingfast/defi-subgraphs/loader")
}
