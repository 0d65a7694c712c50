package beluga

import (
	"log/slog"

	"github.com/robfig/cron"
)

// Discoverer requests discovery rounds.
// Discovery implements this interface.
type Discoverer interface {
	// Discover requests a discovery round.
	Discover() error
}

// RefreshScheduler keeps the cached cluster view fresh by requesting
// discovery rounds on a cron schedule.
type RefreshScheduler struct {
	disc        Discoverer
	cronManager *cron.Cron
	logg        *slog.Logger
}

// NewRefreshScheduler creates a new RefreshScheduler instance.
func NewRefreshScheduler(disc Discoverer, logg *slog.Logger) *RefreshScheduler {
	return &RefreshScheduler{
		disc:        disc,
		cronManager: cron.New(), // Initialize cron with seconds support
		logg:        logg.With("component", "beluga_refresh"),
	}
}

// Schedule registers the refresh schedule.
// Cron format with special support for seconds if needed.
// Ex: "0 */5 * * * *" for every five minutes.
// Normal format also supported.
func (rs *RefreshScheduler) Schedule(spec string) error {
	err := rs.cronManager.AddFunc(spec, func() {
		if err := rs.disc.Discover(); err != nil {
			rs.logg.Error("Failed to request rediscovery", "error", err)
			return
		}

		rs.logg.Debug("Rediscovery requested")
	})

	if err != nil {
		rs.logg.Error("Failed to register refresh schedule", "spec", spec, "error", err)
		return err
	}

	return nil
}

// Start initializes and starts the RefreshScheduler.
func (rs *RefreshScheduler) Start() {
	rs.cronManager.Start()
	rs.logg.Info("RefreshScheduler started")
}

// Stop stops the RefreshScheduler and all scheduled refreshes.
func (rs *RefreshScheduler) Stop() {
	rs.cronManager.Stop()
	rs.logg.Info("RefreshScheduler stopped")
}
