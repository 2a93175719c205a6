package scoring_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/shotboard/internal/domain/model"
	"github.com/okian/shotboard/internal/domain/scoring"
	"github.com/okian/shotboard/internal/domain/tournament"
	. "github.com/smartystreets/goconvey/convey"
)

func intPtr(v int) *int { return &v }

func startedSession(targets, shots int, players ...model.Participant) *scoring.Session {
	s := scoring.NewSession()
	So(s.Initialize(tournament.NewConfig(targets, shots), players), ShouldBeNil)
	return s
}

var (
	ana  = model.Participant{ID: "p-ana", Name: "Ana"}
	bor  = model.Participant{ID: "p-bor", Name: "Bor"}
	cvet = model.Participant{ID: "p-cvet", Name: "Cvet"}
)

func TestSession_Lifecycle(t *testing.T) {
	Convey("Given a new session", t, func() {
		s := scoring.NewSession(scoring.WithDefaultShape(10, 3))

		Convey("Then it is unconfigured with the default shape", func() {
			So(s.Phase(), ShouldEqual, model.PhaseUnconfigured)
			So(s.Config().TargetCount, ShouldEqual, 10)
			So(s.Config().ShotsPerTarget, ShouldEqual, 3)
			So(s.Sheet(), ShouldBeNil)
		})

		Convey("When it is configured and started", func() {
			So(s.Configure(tournament.NewConfig(3, 2)), ShouldBeNil)
			So(s.Select([]model.Participant{ana, bor}), ShouldBeNil)
			So(s.Phase(), ShouldEqual, model.PhaseConfigured)
			So(s.Start(), ShouldBeNil)

			Convey("Then a dense all-unset sheet exists", func() {
				So(s.Phase(), ShouldEqual, model.PhaseScoring)
				sheet := s.Sheet()
				So(sheet.Targets(), ShouldEqual, 3)
				So(sheet.Shots(), ShouldEqual, 2)
				So(sheet.Participants(), ShouldResemble, []string{"p-ana", "p-bor"})
				So(s.Status("p-ana"), ShouldEqual, model.StatusNotStarted)
			})

			Convey("Then the shape is frozen", func() {
				err := s.Configure(tournament.NewConfig(5, 5))
				So(errors.Is(err, scoring.ErrConfigFrozen), ShouldBeTrue)
				So(s.Config().TargetCount, ShouldEqual, 3)
			})

			Convey("Then the selection is frozen", func() {
				err := s.Select([]model.Participant{cvet})
				So(errors.Is(err, scoring.ErrInvalidPhase), ShouldBeTrue)
			})

			Convey("When the session is reset", func() {
				s.Reset()

				Convey("Then everything returns to defaults", func() {
					So(s.Phase(), ShouldEqual, model.PhaseUnconfigured)
					So(s.Selected(), ShouldBeEmpty)
					So(s.Sheet(), ShouldBeNil)
					So(s.Config().TargetCount, ShouldEqual, 10)
				})
			})
		})

		Convey("When it is started without participants", func() {
			err := s.Initialize(tournament.NewConfig(3, 2), nil)

			Convey("Then validation fails and the session is unchanged", func() {
				So(errors.Is(err, tournament.ErrNoParticipantsSelected), ShouldBeTrue)
				So(s.Phase(), ShouldEqual, model.PhaseUnconfigured)
			})
		})

		Convey("When it is started with an invalid shape", func() {
			err := s.Initialize(tournament.NewConfig(0, 2), []model.Participant{ana})

			Convey("Then the target error comes first", func() {
				So(errors.Is(err, tournament.ErrInvalidTargetCount), ShouldBeTrue)
			})
		})

		Convey("When scores are written before scoring starts", func() {
			_, err := s.SetScore("p-ana", 1, 1, intPtr(5))

			Convey("Then the phase is rejected", func() {
				So(errors.Is(err, scoring.ErrInvalidPhase), ShouldBeTrue)
			})
		})
	})
}

func TestSession_SetScore(t *testing.T) {
	Convey("Given a scoring session", t, func() {
		s := startedSession(3, 2, ana)

		Convey("When a valid value is typed", func() {
			u, err := s.SetScore("p-ana", 2, 1, intPtr(7))

			Convey("Then it is committed", func() {
				So(err, ShouldBeNil)
				So(u.Committed, ShouldBeTrue)
				v, ok := u.Value.Int()
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 7)
				So(u.TargetTotal, ShouldEqual, 7)
				So(u.Aggregate.Total, ShouldEqual, 7)
				So(u.Status, ShouldEqual, model.StatusInProgress)
			})

			Convey("And then an out-of-range value is typed", func() {
				u, err := s.SetScore("p-ana", 2, 1, intPtr(42))

				Convey("Then the previous value is retained", func() {
					So(err, ShouldBeNil)
					So(u.Committed, ShouldBeFalse)
					v, _ := u.Value.Int()
					So(v, ShouldEqual, 7)
				})
			})

			Convey("And then the shot is cleared", func() {
				u, err := s.SetScore("p-ana", 2, 1, nil)

				Convey("Then the cell is unset", func() {
					So(err, ShouldBeNil)
					So(u.Committed, ShouldBeTrue)
					So(u.Value.IsSet(), ShouldBeFalse)
					So(u.Status, ShouldEqual, model.StatusNotStarted)
				})
			})
		})

		Convey("When a negative value is typed", func() {
			u, err := s.SetScore("p-ana", 1, 1, intPtr(-1))

			Convey("Then nothing is written", func() {
				So(err, ShouldBeNil)
				So(u.Committed, ShouldBeFalse)
				So(u.Value.IsSet(), ShouldBeFalse)
			})
		})

		Convey("When a 10 is typed", func() {
			u, _ := s.SetScore("p-ana", 1, 2, intPtr(10))

			Convey("Then the write is flagged as perfect", func() {
				So(u.Perfect, ShouldBeTrue)
				So(u.Aggregate.PerfectShots, ShouldEqual, 1)
			})
		})

		Convey("When a nonexistent cell is addressed", func() {
			_, errTarget := s.SetScore("p-ana", 4, 1, intPtr(1))
			_, errShot := s.SetScore("p-ana", 1, 3, intPtr(1))
			_, errID := s.CapScore("nobody", 1, 1, "5")

			Convey("Then each fails fast", func() {
				So(errors.Is(errTarget, scoring.ErrOutOfRangeAddress), ShouldBeTrue)
				So(errors.Is(errShot, scoring.ErrOutOfRangeAddress), ShouldBeTrue)
				So(errors.Is(errID, scoring.ErrOutOfRangeAddress), ShouldBeTrue)
			})
		})
	})
}

func TestSession_CapScore(t *testing.T) {
	Convey("Given a scoring session", t, func() {
		s := startedSession(1, 1, ana)

		Convey("When 15 is committed", func() {
			u, err := s.CapScore("p-ana", 1, 1, "15")

			Convey("Then it is capped to 10", func() {
				So(err, ShouldBeNil)
				v, _ := u.Value.Int()
				So(v, ShouldEqual, 10)
				So(u.Perfect, ShouldBeTrue)
			})
		})

		Convey("When -3 is committed", func() {
			u, _ := s.CapScore("p-ana", 1, 1, "-3")

			Convey("Then it is raised to 0", func() {
				v, ok := u.Value.Int()
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 0)
			})
		})

		Convey("When an in-range value is committed twice", func() {
			first, _ := s.CapScore("p-ana", 1, 1, "7")
			second, _ := s.CapScore("p-ana", 1, 1, first.Value.String())

			Convey("Then capping is idempotent", func() {
				So(second.Value, ShouldResemble, first.Value)
				v, _ := second.Value.Int()
				So(v, ShouldEqual, 7)
			})
		})

		Convey("When a non-numeric value follows a committed one", func() {
			_, _ = s.CapScore("p-ana", 1, 1, "6")
			u, err := s.CapScore("p-ana", 1, 1, "abc")

			Convey("Then the previous value is returned unchanged", func() {
				So(err, ShouldBeNil)
				So(u.Committed, ShouldBeFalse)
				v, _ := u.Value.Int()
				So(v, ShouldEqual, 6)
			})
		})

		Convey("When form-style input is committed", func() {
			u, _ := s.CapScore("p-ana", 1, 1, " 8.9")

			Convey("Then the leading integer is used", func() {
				v, _ := u.Value.Int()
				So(v, ShouldEqual, 8)
			})
		})
	})
}

func TestSession_Scenario(t *testing.T) {
	Convey("Given Ana on a 3 x 2 tournament", t, func() {
		s := startedSession(3, 2, ana)
		shots := [][]*int{
			{intPtr(10), intPtr(10)},
			{intPtr(5), nil},
			{intPtr(0), intPtr(10)},
		}
		for ti, row := range shots {
			for si, v := range row {
				_, err := s.SetScore("p-ana", ti+1, si+1, v)
				So(err, ShouldBeNil)
			}
		}

		Convey("Then the aggregate and status match", func() {
			agg := s.Aggregate("p-ana")
			So(agg.Total, ShouldEqual, 35)
			So(agg.PerfectShots, ShouldEqual, 3)
			So(s.Status("p-ana"), ShouldEqual, model.StatusInProgress)
		})

		Convey("When all scores are cleared", func() {
			So(s.ClearScores(), ShouldBeNil)

			Convey("Then Ana has not started", func() {
				So(s.Aggregate("p-ana").Total, ShouldEqual, 0)
				So(s.Status("p-ana"), ShouldEqual, model.StatusNotStarted)
			})
		})
	})
}

func TestSession_Finish(t *testing.T) {
	Convey("Given a scored tournament", t, func() {
		s := startedSession(2, 1, ana, bor)
		_, _ = s.CapScore("p-ana", 1, 1, "9")
		_, _ = s.CapScore("p-bor", 1, 1, "10")
		now := time.UnixMilli(1_700_000_000_123)

		Convey("When it is finished", func() {
			entry, created, err := s.Finish(now)

			Convey("Then a history entry is produced", func() {
				So(err, ShouldBeNil)
				So(created, ShouldBeTrue)
				So(s.Phase(), ShouldEqual, model.PhaseFinished)
				So(entry.Timestamp, ShouldEqual, int64(1_700_000_000_123))
				So(entry.ParticipantCount, ShouldEqual, 2)
				So(entry.Config.Type, ShouldEqual, tournament.TypeSmall)
				So(entry.Results[0].ParticipantID, ShouldEqual, "p-bor")
				So(entry.Results[0].Rank, ShouldEqual, 1)
				So(entry.Results[1].ParticipantID, ShouldEqual, "p-ana")
			})

			Convey("Then finishing again re-derives without creating", func() {
				again, created, err := s.Finish(now.Add(time.Hour))
				So(err, ShouldBeNil)
				So(created, ShouldBeFalse)
				So(again.Timestamp, ShouldEqual, entry.Timestamp)
				So(again.Results, ShouldResemble, entry.Results)
			})

			Convey("Then the entry is isolated from later edits", func() {
				entry.Scores.Set("p-ana", 1, 1, model.ScoreOf(0))
				stored, _ := s.Finished()
				So(stored.Scores.Aggregate("p-ana").Total, ShouldEqual, 9)
			})

			Convey("Then scoring is closed", func() {
				_, err := s.CapScore("p-ana", 2, 1, "5")
				So(errors.Is(err, scoring.ErrInvalidPhase), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unconfigured session", t, func() {
		s := scoring.NewSession()

		Convey("Then finishing is rejected", func() {
			_, _, err := s.Finish(time.Now())
			So(errors.Is(err, scoring.ErrInvalidPhase), ShouldBeTrue)
		})
	})
}

func TestSession_SnapshotRestore(t *testing.T) {
	Convey("Given a session in the middle of scoring", t, func() {
		s := startedSession(2, 2, ana, bor)
		_, _ = s.CapScore("p-bor", 2, 2, "10")

		Convey("When its snapshot is restored into a fresh session", func() {
			data, err := model.EncodeSessionState(s.Snapshot())
			So(err, ShouldBeNil)
			state, err := model.DecodeSessionState(data)
			So(err, ShouldBeNil)

			restored := scoring.NewSession()
			So(restored.Restore(state), ShouldBeNil)

			Convey("Then scoring continues where it stopped", func() {
				So(restored.Phase(), ShouldEqual, model.PhaseScoring)
				So(restored.Selected(), ShouldResemble, []model.Participant{ana, bor})
				So(restored.Aggregate("p-bor"), ShouldResemble, model.Aggregate{Total: 10, PerfectShots: 1})
				_, err := restored.CapScore("p-ana", 1, 1, "4")
				So(err, ShouldBeNil)
			})
		})

		Convey("When it is finished and restored", func() {
			entry, _, _ := s.Finish(time.UnixMilli(42))
			restored := scoring.NewSession()
			So(restored.Restore(s.Snapshot()), ShouldBeNil)

			Convey("Then the finished entry is recoverable", func() {
				So(restored.Phase(), ShouldEqual, model.PhaseFinished)
				again, created, err := restored.Finish(time.UnixMilli(99))
				So(err, ShouldBeNil)
				So(created, ShouldBeFalse)
				So(again.Timestamp, ShouldEqual, entry.Timestamp)
				So(again.Results, ShouldResemble, entry.Results)
			})
		})
	})

	Convey("Given a snapshot whose sheet disagrees with its config", t, func() {
		state := model.SessionState{
			Phase:            model.PhaseScoring,
			SelectedPlayers:  []model.Participant{ana},
			TournamentConfig: tournament.NewConfig(5, 2),
			Scores:           model.NewScoreSheet([]string{"p-ana"}, 3, 2),
		}
		s := scoring.NewSession()

		Convey("Then it is rejected and the session is untouched", func() {
			err := s.Restore(state)
			So(errors.Is(err, model.ErrSerialization), ShouldBeTrue)
			So(s.Phase(), ShouldEqual, model.PhaseUnconfigured)
		})
	})

	Convey("Given a legacy snapshot without a phase", t, func() {
		state := model.SessionState{
			SelectedPlayers:  []model.Participant{ana},
			TournamentConfig: tournament.NewConfig(1, 1),
			Scores:           model.NewScoreSheet([]string{"p-ana"}, 1, 1),
		}
		s := scoring.NewSession()

		Convey("Then the phase is inferred", func() {
			So(s.Restore(state), ShouldBeNil)
			So(s.Phase(), ShouldEqual, model.PhaseScoring)
		})
	})
}
