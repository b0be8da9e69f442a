package repository_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	repository "github.com/terrylhu/scrim/internal/adapters/repository"
	"github.com/terrylhu/scrim/internal/domain/model"
)

func TestMemStoreUsers(t *testing.T) {
	Convey("Given an empty in-memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore(ctx)

		Convey("When users are registered", func() {
			So(store.UpsertUser(ctx, "u1", "ann", 120), ShouldBeNil)
			So(store.UpsertUser(ctx, "u2", "bob", 80), ShouldBeNil)

			Convey("Then they can be fetched by id", func() {
				u, err := store.GetUser(ctx, "u1")
				So(err, ShouldBeNil)
				So(u.Name, ShouldEqual, "ann")
				So(u.Rating, ShouldEqual, 120)
				So(u.BaseRating, ShouldEqual, 120)
			})

			Convey("And listing by rating orders descending", func() {
				users := store.ListUsers(ctx, repository.ByRating)
				So(users, ShouldHaveLength, 2)
				So(users[0].ID, ShouldEqual, "u1")
			})

			Convey("And listing by name orders ascending", func() {
				users := store.ListUsers(ctx, repository.ByName)
				So(users[0].Name, ShouldEqual, "ann")
				So(users[1].Name, ShouldEqual, "bob")
			})

			Convey("And re-registration resets rating and baseline", func() {
				// Simulate drift through the registry view.
				err := store.Mutate(ctx, func(reg repository.Registry) error {
					p, ok := reg.Lookup("u1")
					if !ok {
						t.Fatal("u1 missing from registry view")
					}
					p.Rating = 300
					p.Wins = 5
					return nil
				})
				So(err, ShouldBeNil)

				So(store.UpsertUser(ctx, "u1", "ann", 90), ShouldBeNil)
				u, err := store.GetUser(ctx, "u1")
				So(err, ShouldBeNil)
				So(u.Rating, ShouldEqual, 90)
				So(u.BaseRating, ShouldEqual, 90)
			})
		})

		Convey("When registering with a negative base rating", func() {
			err := store.UpsertUser(ctx, "u3", "neg", -5)

			Convey("Then it should be rejected", func() {
				So(err, ShouldWrap, repository.ErrNegativeBase)
			})
		})

		Convey("When removing an unknown user", func() {
			err := store.RemoveUser(ctx, "nobody")

			Convey("Then it should fail with ErrUserNotFound", func() {
				So(err, ShouldWrap, repository.ErrUserNotFound)
			})
		})
	})
}

func TestMemStoreMatches(t *testing.T) {
	Convey("Given a store with one match", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore(ctx)
		id, err := store.AppendMatch(ctx, model.MatchRecord{
			Teams: [][]string{{"u1"}, {"u2"}},
		})
		So(err, ShouldBeNil)
		So(id, ShouldNotBeEmpty)

		Convey("When winners are set within range", func() {
			So(store.SetWinners(ctx, id, []int{1}), ShouldBeNil)

			Convey("Then the stored record reflects them", func() {
				rec, err := store.GetMatch(ctx, id)
				So(err, ShouldBeNil)
				So(rec.Winners, ShouldResemble, []int{1})
				So(rec.When.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When a winner index is out of range", func() {
			err := store.SetWinners(ctx, id, []int{2})

			Convey("Then it should be rejected", func() {
				So(err, ShouldWrap, repository.ErrWinnerOutOfRange)
			})
		})

		Convey("When the match is deleted", func() {
			So(store.DeleteMatch(ctx, id), ShouldBeNil)

			Convey("Then it is gone", func() {
				_, err := store.GetMatch(ctx, id)
				So(err, ShouldWrap, repository.ErrMatchNotFound)
				So(store.DeleteMatch(ctx, id), ShouldWrap, repository.ErrMatchNotFound)
			})
		})

		Convey("When more matches are appended", func() {
			id2, err := store.AppendMatch(ctx, model.MatchRecord{Teams: [][]string{{"a"}, {"b"}}})
			So(err, ShouldBeNil)
			_, err = store.AppendMatch(ctx, model.MatchRecord{Teams: [][]string{{"c"}, {"d"}}})
			So(err, ShouldBeNil)

			Convey("Then RecentMatches returns newest first", func() {
				recent := store.RecentMatches(ctx, 2)
				So(recent, ShouldHaveLength, 2)
				So(recent[1].ID, ShouldEqual, id2)
			})

			Convey("And Matches preserves insertion order", func() {
				all := store.Matches(ctx)
				So(all, ShouldHaveLength, 3)
				So(all[0].ID, ShouldEqual, id)
			})
		})
	})
}

func TestMemStoreSnapshots(t *testing.T) {
	Convey("Given a store with a data directory", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		store := repository.NewMemStore(ctx, repository.WithDataDir(dir))

		So(store.UpsertUser(ctx, "u1", "ann", 120), ShouldBeNil)
		So(store.UpsertUser(ctx, "u2", "bob", 80), ShouldBeNil)
		when := time.Date(2025, 6, 2, 19, 30, 0, 0, time.UTC)
		_, err := store.AppendMatch(ctx, model.MatchRecord{
			ID:      "m1",
			When:    when,
			Teams:   [][]string{{"u1"}, {"u2"}},
			Winners: []int{0},
		})
		So(err, ShouldBeNil)

		Convey("When saved and loaded into a fresh store", func() {
			So(store.Save(ctx), ShouldBeNil)

			fresh := repository.NewMemStore(ctx, repository.WithDataDir(dir))
			So(fresh.Load(ctx), ShouldBeNil)

			Convey("Then users and matches round-trip", func() {
				So(fresh.CountUsers(ctx), ShouldEqual, 2)
				u, err := fresh.GetUser(ctx, "u1")
				So(err, ShouldBeNil)
				So(u.Name, ShouldEqual, "ann")

				rec, err := fresh.GetMatch(ctx, "m1")
				So(err, ShouldBeNil)
				So(rec.Teams, ShouldResemble, [][]string{{"u1"}, {"u2"}})
				So(rec.Winners, ShouldResemble, []int{0})
				So(rec.When.Equal(when), ShouldBeTrue)
			})
		})

		Convey("When loading from an empty directory", func() {
			fresh := repository.NewMemStore(ctx, repository.WithDataDir(t.TempDir()))

			Convey("Then missing snapshot files leave the store empty", func() {
				So(fresh.Load(ctx), ShouldBeNil)
				So(fresh.CountUsers(ctx), ShouldEqual, 0)
				So(fresh.Matches(ctx), ShouldBeEmpty)
			})
		})
	})
}

func TestMemStoreRegistryView(t *testing.T) {
	Convey("Given a store acting as the rating registry", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore(ctx)
		So(store.UpsertUser(ctx, "u1", "ann", 100), ShouldBeNil)
		So(store.UpsertUser(ctx, "u2", "bob", 100), ShouldBeNil)

		Convey("When mutating rows inside Mutate", func() {
			err := store.Mutate(ctx, func(reg repository.Registry) error {
				p, ok := reg.Lookup("u1")
				if !ok {
					t.Fatal("u1 missing from registry view")
				}
				p.Rating = 104
				return nil
			})
			So(err, ShouldBeNil)

			Convey("Then reads observe the mutation", func() {
				u, err := store.GetUser(ctx, "u1")
				So(err, ShouldBeNil)
				So(u.Rating, ShouldEqual, 104)
			})
		})

		Convey("When iterating with Each", func() {
			seen := 0
			err := store.Mutate(ctx, func(reg repository.Registry) error {
				reg.Each(func(p *model.Participant) { seen++ })
				return nil
			})

			Convey("Then every participant is visited", func() {
				So(err, ShouldBeNil)
				So(seen, ShouldEqual, 2)
			})
		})

		Convey("When looking up an unknown id", func() {
			found := true
			err := store.Mutate(ctx, func(reg repository.Registry) error {
				_, found = reg.Lookup("ghost")
				return nil
			})

			Convey("Then it reports absence", func() {
				So(err, ShouldBeNil)
				So(found, ShouldBeFalse)
			})
		})
	})
}
