package cli

import (
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

var zlog *zap.Logger

func init() {
	zlog, _ = logging.ApplicationLogger("defi-subgraphs", "github.com/streamingfast/defi-subgraphs/cmd/defi-subgraphs",
		logging.WithSwitcherServerAutoStart(),
	)
}
