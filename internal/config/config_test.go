package config_test

import (
	"path/filepath"
	"testing"

	"github.com/okian/shotboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.Storage, convey.ShouldEqual, config.StorageSQLite)
			convey.So(cfg.HistoryCapacity, convey.ShouldEqual, 5)
			convey.So(cfg.DefaultTargets, convey.ShouldEqual, 20)
			convey.So(cfg.DefaultShotsPerTarget, convey.ShouldEqual, 2)
			convey.So(cfg.DefaultPlayers, convey.ShouldBeEmpty)
			convey.So(cfg.DataDir, convey.ShouldNotBeEmpty)
			convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "shotboard")
			convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "core")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then storage paths default into the data dir", func() {
			cfg.DataDir = "/tmp/sb"
			convey.So(cfg.ResolvedDatabasePath(), convey.ShouldEqual, filepath.Join("/tmp/sb", "shotboard.db"))
			convey.So(cfg.ResolvedSessionPath(), convey.ShouldEqual, filepath.Join("/tmp/sb", "session"))
		})

		convey.Convey("Then explicit paths win", func() {
			cfg.DatabasePath = "/var/db.sqlite"
			cfg.SessionPath = "/var/session"
			convey.So(cfg.ResolvedDatabasePath(), convey.ShouldEqual, "/var/db.sqlite")
			convey.So(cfg.ResolvedSessionPath(), convey.ShouldEqual, "/var/session")
		})
	})
}
