package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/sweeney/alarm-clock/internal/config"
)

// restart never returns. In exit mode the process exits non-zero and the
// supervisor starts it again; in reboot mode the whole device restarts.
func restart(log *zap.Logger, mode string, cause error) {
	log.Error("restarting", zap.String("mode", mode), zap.Error(cause))
	_ = log.Sync()
	if mode == config.RestartReboot {
		if err := reboot(); err != nil {
			log.Error("reboot failed, exiting instead", zap.Error(err))
		}
	}
	os.Exit(1)
}
