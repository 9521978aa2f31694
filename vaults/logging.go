package vaults

import (
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

var zlog *zap.Logger

func init() {
	zlog, _ = logging.PackageLogger("vaults", "github.com/streamingfast/defi-subgraphs/vaults")
}
