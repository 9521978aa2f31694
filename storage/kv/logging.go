package kv

import (
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

var zlog *zap.Logger

func init() {
	zlog, _ = logging.PackageLogger("kv", "github.com/streamingfast/defi-subgraphs/storage/kv")
}
