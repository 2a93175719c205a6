package tournament_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/shotboard/internal/domain/tournament"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTypeFor(t *testing.T) {
	Convey("Given target counts across every category", t, func() {
		Convey("Then 1-4 targets are small", func() {
			for n := 1; n <= 4; n++ {
				So(tournament.TypeFor(n), ShouldEqual, tournament.TypeSmall)
			}
		})

		Convey("Then 5-20 targets are medium", func() {
			for n := 5; n <= 20; n++ {
				So(tournament.TypeFor(n), ShouldEqual, tournament.TypeMedium)
			}
		})

		Convey("Then 21-100 targets are large", func() {
			for n := 21; n <= 100; n++ {
				So(tournament.TypeFor(n), ShouldEqual, tournament.TypeLarge)
			}
		})

		Convey("Then zero and negative counts have no category", func() {
			So(tournament.TypeFor(0), ShouldEqual, tournament.TypeNone)
			So(tournament.TypeFor(-3), ShouldEqual, tournament.TypeNone)
		})
	})
}

func TestNewConfig(t *testing.T) {
	Convey("Given a 20 x 2 shape", t, func() {
		cfg := tournament.NewConfig(20, 2)

		Convey("Then derived fields are computed", func() {
			So(cfg.TotalShots, ShouldEqual, 40)
			So(cfg.Type, ShouldEqual, tournament.TypeMedium)
			So(cfg.String(), ShouldEqual, "20T × 2S")
		})

		Convey("When the shape changes", func() {
			cfg = tournament.NewConfig(3, 5)

			Convey("Then derived fields follow", func() {
				So(cfg.TotalShots, ShouldEqual, 15)
				So(cfg.Type, ShouldEqual, tournament.TypeSmall)
			})
		})
	})
}

func TestConfigJSON(t *testing.T) {
	Convey("Given an encoded config with stale derived fields", t, func() {
		raw := []byte(`{"targetCount":25,"shotsPerTarget":3,"totalShots":1,"tournamentType":"small-targets"}`)

		Convey("When it is decoded", func() {
			var cfg tournament.Config
			err := json.Unmarshal(raw, &cfg)

			Convey("Then the derived fields are recomputed", func() {
				So(err, ShouldBeNil)
				So(cfg.TotalShots, ShouldEqual, 75)
				So(cfg.Type, ShouldEqual, tournament.TypeLarge)
			})
		})
	})

	Convey("Given a config without a category", t, func() {
		cfg := tournament.NewConfig(0, 2)

		Convey("Then the category encodes as null", func() {
			data, err := json.Marshal(cfg)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"tournamentType":null`)
		})
	})

	Convey("Given an unknown category string", t, func() {
		var typ tournament.Type
		err := json.Unmarshal([]byte(`"huge-targets"`), &typ)

		Convey("Then decoding fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given a valid shape and a selection", t, func() {
		So(tournament.Validate(tournament.NewConfig(1, 1), 1), ShouldBeNil)
		So(tournament.Validate(tournament.NewConfig(100, 20), 8), ShouldBeNil)
	})

	Convey("Given an out-of-range target count", t, func() {
		err := tournament.Validate(tournament.NewConfig(101, 2), 3)

		Convey("Then the target error is reported", func() {
			So(errors.Is(err, tournament.ErrInvalidTargetCount), ShouldBeTrue)
			So(errors.Is(err, tournament.ErrValidation), ShouldBeTrue)
		})
	})

	Convey("Given an out-of-range shot count", t, func() {
		err := tournament.Validate(tournament.NewConfig(10, 21), 3)

		Convey("Then the shots error is reported", func() {
			So(errors.Is(err, tournament.ErrInvalidShotsPerTarget), ShouldBeTrue)
		})
	})

	Convey("Given no selected participants", t, func() {
		err := tournament.Validate(tournament.NewConfig(10, 2), 0)

		Convey("Then the selection error is reported", func() {
			So(errors.Is(err, tournament.ErrNoParticipantsSelected), ShouldBeTrue)
		})
	})

	Convey("Given every check failing", t, func() {
		cfg := tournament.NewConfig(0, 0)

		Convey("Then Validate stops at the target count", func() {
			So(tournament.Validate(cfg, 0), ShouldEqual, tournament.ErrInvalidTargetCount)
		})

		Convey("Then Check reports all three in order", func() {
			errs := tournament.Check(cfg, 0)
			So(errs, ShouldHaveLength, 3)
			So(errs[0], ShouldEqual, tournament.ErrInvalidTargetCount)
			So(errs[1], ShouldEqual, tournament.ErrInvalidShotsPerTarget)
			So(errs[2], ShouldEqual, tournament.ErrNoParticipantsSelected)
		})
	})
}

func TestClamp(t *testing.T) {
	Convey("Given shapes outside the accepted ranges", t, func() {
		targets, shots := tournament.Clamp(0, 50)
		So(targets, ShouldEqual, 1)
		So(shots, ShouldEqual, 20)

		targets, shots = tournament.Clamp(250, -1)
		So(targets, ShouldEqual, 100)
		So(shots, ShouldEqual, 1)

		targets, shots = tournament.Clamp(12, 4)
		So(targets, ShouldEqual, 12)
		So(shots, ShouldEqual, 4)
	})
}
