package rating_test

import (
	"context"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/terrylhu/scrim/internal/domain/rating"
)

// fakeRegistry is a map-backed registry for engine tests.
type fakeRegistry struct {
	users map[string]*rating.Participant
}

func newFakeRegistry(ratings map[string]float64) *fakeRegistry {
	f := &fakeRegistry{users: make(map[string]*rating.Participant)}
	for id, r := range ratings {
		f.users[id] = &rating.Participant{ID: id, Rating: r, BaseRating: r}
	}
	return f
}

func (f *fakeRegistry) Lookup(id string) (*rating.Participant, bool) {
	p, ok := f.users[id]
	return p, ok
}

func (f *fakeRegistry) Each(fn func(p *rating.Participant)) {
	for _, p := range f.users {
		fn(p)
	}
}

func (f *fakeRegistry) snapshot() map[string]rating.Participant {
	out := make(map[string]rating.Participant, len(f.users))
	for id, p := range f.users {
		out[id] = *p
	}
	return out
}

func (f *fakeRegistry) totalRating() float64 {
	var sum float64
	for _, p := range f.users {
		sum += p.Rating
	}
	return sum
}

func TestApplyMatchValidation(t *testing.T) {
	Convey("Given an engine and a two-team registry", t, func() {
		e := rating.New()
		reg := newFakeRegistry(map[string]float64{"a": 100, "b": 100})
		ctx := context.Background()

		Convey("When the match has no teams", func() {
			err := e.ApplyMatch(ctx, reg, nil, nil)

			Convey("Then it should fail with ErrNoTeams", func() {
				So(err, ShouldWrap, rating.ErrNoTeams)
			})
		})

		Convey("When a winner index is out of range", func() {
			before := reg.snapshot()
			err := e.ApplyMatch(ctx, reg, [][]string{{"a"}, {"b"}}, []int{5})

			Convey("Then it should fail and leave the registry unchanged", func() {
				So(err, ShouldWrap, rating.ErrInvalidWinnerIndex)
				So(reg.snapshot(), ShouldResemble, before)
			})
		})

		Convey("When a winner index is negative", func() {
			err := e.ApplyMatch(ctx, reg, [][]string{{"a"}, {"b"}}, []int{-1})

			Convey("Then it should fail with ErrInvalidWinnerIndex", func() {
				So(err, ShouldWrap, rating.ErrInvalidWinnerIndex)
			})
		})
	})
}

func TestApplyMatchElo(t *testing.T) {
	Convey("Given two evenly rated one-player teams and K=4", t, func() {
		e := rating.New(rating.WithKFactor(4))
		reg := newFakeRegistry(map[string]float64{"a": 100, "b": 100})
		ctx := context.Background()

		Convey("When team 0 wins", func() {
			err := e.ApplyMatch(ctx, reg, [][]string{{"a"}, {"b"}}, []int{0})

			Convey("Then the winner gains K/2 and the loser drops K/2", func() {
				So(err, ShouldBeNil)
				So(reg.users["a"].Rating, ShouldAlmostEqual, 102, 1e-9)
				So(reg.users["b"].Rating, ShouldAlmostEqual, 98, 1e-9)
			})

			Convey("And win/loss counters advance", func() {
				So(err, ShouldBeNil)
				So(reg.users["a"].Wins, ShouldEqual, 1)
				So(reg.users["a"].Games, ShouldEqual, 1)
				So(reg.users["b"].Wins, ShouldEqual, 0)
				So(reg.users["b"].Games, ShouldEqual, 1)
			})
		})

		Convey("When both teams are declared winners", func() {
			err := e.ApplyMatch(ctx, reg, [][]string{{"a"}, {"b"}}, []int{0, 1})

			Convey("Then equal ratings stay put and both record a win", func() {
				So(err, ShouldBeNil)
				So(reg.users["a"].Rating, ShouldAlmostEqual, 100, 1e-9)
				So(reg.users["b"].Rating, ShouldAlmostEqual, 100, 1e-9)
				So(reg.users["a"].Wins, ShouldEqual, 1)
				So(reg.users["b"].Wins, ShouldEqual, 1)
			})
		})

		Convey("When no team is declared a winner", func() {
			err := e.ApplyMatch(ctx, reg, [][]string{{"a"}, {"b"}}, nil)

			Convey("Then the match counts as a draw with no winners", func() {
				So(err, ShouldBeNil)
				So(reg.users["a"].Rating, ShouldAlmostEqual, 100, 1e-9)
				So(reg.users["a"].Wins, ShouldEqual, 0)
				So(reg.users["a"].Games, ShouldEqual, 1)
			})
		})
	})

	Convey("Given an underdog beating a favorite", t, func() {
		e := rating.New(rating.WithKFactor(4))
		reg := newFakeRegistry(map[string]float64{"dog": 80, "fav": 120})
		ctx := context.Background()

		Convey("When the underdog team wins", func() {
			err := e.ApplyMatch(ctx, reg, [][]string{{"dog"}, {"fav"}}, []int{0})

			Convey("Then the upset moves more than K/2", func() {
				So(err, ShouldBeNil)
				So(reg.users["dog"].Rating-80, ShouldBeGreaterThan, 2)
				So(reg.users["fav"].Rating, ShouldBeLessThan, 118)
			})

			Convey("And total rating is conserved", func() {
				So(err, ShouldBeNil)
				So(reg.totalRating(), ShouldAlmostEqual, 200, 1e-9)
			})
		})
	})
}

func TestApplyMatchDistribution(t *testing.T) {
	Convey("Given teams with mixed member strengths", t, func() {
		e := rating.New(rating.WithKFactor(4))
		ctx := context.Background()

		Convey("When a winning team holds a strong and a weak member", func() {
			reg := newFakeRegistry(map[string]float64{
				"strong": 150, "weak": 30, "l1": 90, "l2": 90,
			})
			err := e.ApplyMatch(ctx, reg, [][]string{{"strong", "weak"}, {"l1", "l2"}}, []int{0})

			Convey("Then the weak winner gains more than the strong one", func() {
				So(err, ShouldBeNil)
				So(reg.users["weak"].Rating-30, ShouldBeGreaterThan, reg.users["strong"].Rating-150)
				So(reg.users["weak"].Rating, ShouldBeGreaterThan, 30)
			})

			Convey("And the equally rated losers split the loss evenly", func() {
				So(err, ShouldBeNil)
				So(reg.users["l1"].Rating, ShouldAlmostEqual, reg.users["l2"].Rating, 1e-9)
			})
		})

		Convey("When a losing team holds a strong and a weak member", func() {
			reg := newFakeRegistry(map[string]float64{
				"strong": 150, "weak": 30, "w1": 90, "w2": 90,
			})
			err := e.ApplyMatch(ctx, reg, [][]string{{"w1", "w2"}, {"strong", "weak"}}, []int{0})

			Convey("Then the strong loser absorbs the larger share", func() {
				So(err, ShouldBeNil)
				So(150-reg.users["strong"].Rating, ShouldBeGreaterThan, 30-reg.users["weak"].Rating)
			})
		})

		Convey("When the winning team total is zero", func() {
			reg := newFakeRegistry(map[string]float64{
				"z1": 0, "z2": 0, "x": 100,
			})
			err := e.ApplyMatch(ctx, reg, [][]string{{"z1", "z2"}, {"x"}}, []int{0})

			Convey("Then the gain is split evenly among members", func() {
				So(err, ShouldBeNil)
				So(reg.users["z1"].Rating, ShouldAlmostEqual, reg.users["z2"].Rating, 1e-9)
				So(reg.users["z1"].Rating, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When a losing member would drop below zero", func() {
			reg := newFakeRegistry(map[string]float64{"tiny": 0.5, "big": 100})
			err := e.ApplyMatch(ctx, reg, [][]string{{"big"}, {"tiny"}}, []int{0})

			Convey("Then the rating clamps at zero", func() {
				So(err, ShouldBeNil)
				So(reg.users["tiny"].Rating, ShouldBeGreaterThanOrEqualTo, 0)
			})
		})

		Convey("When a snapshot references an unregistered id", func() {
			reg := newFakeRegistry(map[string]float64{"a": 100, "b": 100})
			err := e.ApplyMatch(ctx, reg, [][]string{{"a", "ghost"}, {"b"}}, []int{0})

			Convey("Then the unknown member is skipped", func() {
				So(err, ShouldBeNil)
				So(reg.users["a"].Rating, ShouldBeGreaterThan, 100)
				_, ok := reg.users["ghost"]
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestApplyMatchAtomicity(t *testing.T) {
	Convey("Given a registry poisoned with an infinite rating", t, func() {
		e := rating.New()
		reg := newFakeRegistry(map[string]float64{
			"winner": 90, "ok": 100, "bad": math.Inf(1),
		})
		before := reg.snapshot()
		ctx := context.Background()

		Convey("When the poisoned team loses", func() {
			// The winning team stages its gain first; the losing team's
			// weight blows up, which must roll the whole match back.
			err := e.ApplyMatch(ctx, reg, [][]string{{"winner"}, {"ok", "bad"}}, []int{0})

			Convey("Then it fails with ErrNumericInstability", func() {
				So(err, ShouldWrap, rating.ErrNumericInstability)
			})

			Convey("And no participant was mutated", func() {
				So(err, ShouldNotBeNil)
				So(reg.snapshot(), ShouldResemble, before)
			})
		})
	})
}
