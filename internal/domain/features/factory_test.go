package features_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/waitcast/internal/domain/features"
	"github.com/okian/waitcast/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// Monday.
var base = time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC)

func rec(arrivalMin, waitMin, serviceMin, queue float64) model.CleanedRecord {
	a := base.Add(time.Duration(arrivalMin * float64(time.Minute)))
	s := a.Add(time.Duration(waitMin * float64(time.Minute)))
	return model.CleanedRecord{
		Arrival:         a,
		Start:           s,
		Finish:          s.Add(time.Duration(serviceMin * float64(time.Minute))),
		WaitTime:        waitMin,
		QueueLength:     queue,
		ComputedService: serviceMin,
	}
}

// synthetic builds n irregular visits spread over several days.
func synthetic(n int) []model.CleanedRecord {
	out := make([]model.CleanedRecord, n)
	arrival := 0.0
	for i := range out {
		arrival += float64(1 + (i*7)%13)
		if i%17 == 16 {
			arrival += 18 * 60 // next day
		}
		out[i] = rec(arrival, float64((i*5)%11), float64(2+(i*3)%7), float64((i*4)%9))
	}
	return out
}

func TestRollingQueueScenario(t *testing.T) {
	Convey("Given ten rows one minute apart with rising queue lengths", t, func() {
		queues := []float64{3, 3, 4, 4, 5, 5, 6, 6, 7, 7}
		cleaned := make([]model.CleanedRecord, len(queues))
		for i, q := range queues {
			cleaned[i] = rec(float64(i), 1, 1, q)
		}

		Convey("When features are computed", func() {
			fills := features.Fills{Queue: 2, Gap: 45}
			rows, err := features.New(features.WithFills(fills)).Transform(cleaned)
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 10)

			Convey("Then rolling_queue_mean_5 matches the trailing means", func() {
				So(rows[4].RollingQueueMean, ShouldAlmostEqual, 3.8, 1e-12)
				So(rows[9].RollingQueueMean, ShouldAlmostEqual, 6.2, 1e-12)
				So(rows[0].RollingQueueMean, ShouldEqual, 3)
				So(rows[1].RollingQueueMean, ShouldEqual, 3)
				So(rows[2].RollingQueueMean, ShouldAlmostEqual, 10.0/3, 1e-12)
			})

			Convey("Then arrival counts use the trailing windows", func() {
				So(rows[0].ArrivalsPer5Min, ShouldEqual, 1)
				So(rows[4].ArrivalsPer5Min, ShouldEqual, 5)
				So(rows[9].ArrivalsPer5Min, ShouldEqual, 5)
				So(rows[9].TrafficIntensity, ShouldAlmostEqual, 10.0/60, 1e-12)
				So(rows[9].CumulativeCustomers, ShouldEqual, 10)
			})

			Convey("Then gaps are in seconds with the first row filled", func() {
				So(rows[0].ArrivalGapSeconds, ShouldEqual, 45)
				So(rows[0].RollingArrivalGapMean, ShouldEqual, 45)
				So(rows[1].RollingArrivalGapMean, ShouldEqual, 60)
				So(rows[5].ArrivalGapSeconds, ShouldEqual, 60)
				So(rows[5].RollingArrivalGapMean, ShouldEqual, 60)
			})

			Convey("Then queue lags look back one and two rows", func() {
				So(rows[9].QueueLag1, ShouldEqual, 7)
				So(rows[9].QueueLag2, ShouldEqual, 6)
				So(rows[2].QueueLag2, ShouldEqual, 3)
			})

			Convey("Then missing queue lags use only earlier rows", func() {
				So(rows[0].QueueLag1, ShouldEqual, 2) // nothing known yet
				So(rows[0].QueueLag2, ShouldEqual, 2)
				So(rows[1].QueueLag1, ShouldEqual, 3)
				So(rows[1].QueueLag2, ShouldEqual, 3) // median of the one known queue
			})
		})
	})
}

func TestKnowledgeTimeline(t *testing.T) {
	Convey("Given overlapping visits", t, func() {
		cleaned := []model.CleanedRecord{
			rec(0, 10, 10, 1), // starts 9:10, finishes 9:20
			rec(5, 2, 4, 2),   // starts 9:07, finishes 9:11
			rec(12, 1, 1, 3),  // starts 9:13, finishes 9:14
			rec(25, 0, 1, 0),  // 9:25
		}

		Convey("When features are computed", func() {
			waitFill, serviceFill := 3.0, 5.0
			f := features.New(
				features.WithWindow(2),
				features.WithFills(features.Fills{Wait: waitFill, Service: serviceFill}),
			)
			rows, err := f.Transform(cleaned)
			So(err, ShouldBeNil)

			Convey("Then the second arrival sees no finished wait or service", func() {
				So(rows[1].WaitLag1, ShouldEqual, waitFill)
				So(rows[1].ServiceLag1, ShouldEqual, serviceFill)
				So(rows[1].RollingServiceMean, ShouldEqual, serviceFill)
				So(rows[1].CumulativeInSystem, ShouldEqual, 1)
			})

			Convey("Then waits become known in start order", func() {
				// Row 1 started at 9:07, row 0 at 9:10; both before 9:12.
				So(rows[2].WaitLag1, ShouldEqual, 10)
				So(rows[2].WaitLag2, ShouldEqual, 2)
				So(rows[2].WaitEWMA, ShouldAlmostEqual, 0.3*10+0.7*2, 1e-12)
			})

			Convey("Then services become known at finish", func() {
				So(rows[2].ServiceLag1, ShouldEqual, 4)
				So(rows[2].ServiceLag2, ShouldEqual, 4) // median of the known services
				So(rows[2].CumulativeInSystem, ShouldEqual, 1)
				// By 9:25 row 2 (9:14) and row 0 (9:20) have finished, in that order.
				So(rows[3].ServiceLag1, ShouldEqual, 10)
				So(rows[3].ServiceLag2, ShouldEqual, 1)
				So(rows[3].CumulativeInSystem, ShouldEqual, 0)
			})

			Convey("Then the service load ratio uses known services only", func() {
				So(rows[2].ServiceLoadRatio, ShouldEqual, 3*4)
			})

			Convey("Then a row never sees its own wait or service", func() {
				So(rows[0].WaitLag1, ShouldEqual, waitFill)
				So(rows[0].ServiceEWMA, ShouldEqual, serviceFill)
			})
		})
	})
}

func TestTemporalFeatures(t *testing.T) {
	Convey("Given visits over several days", t, func() {
		rows, err := features.New().Transform(synthetic(120))
		So(err, ShouldBeNil)

		Convey("Then calendar values stay in range", func() {
			for _, r := range rows {
				So(r.ArrivalHour, ShouldBeBetweenOrEqual, 0, 23)
				So(r.DayOfWeek, ShouldBeBetweenOrEqual, 0, 6)
				So(r.Month, ShouldBeBetweenOrEqual, 1, 12)
				So(r.MinutesSinceOpen, ShouldBeGreaterThanOrEqualTo, 0)
				So(r.MinutesSinceOpen, ShouldBeLessThan, 1440)
				So(r.HourSin*r.HourSin+r.HourCos*r.HourCos, ShouldAlmostEqual, 1, 1e-9)
				So(r.IsWeekend, ShouldEqual, r.DayOfWeek >= 5)
			}
		})

		Convey("Then no value is NaN", func() {
			for _, r := range rows {
				for _, c := range features.Columns {
					v, ok := r.Value(c)
					So(ok, ShouldBeTrue)
					So(math.IsNaN(v), ShouldBeFalse)
				}
			}
		})
	})

	Convey("Given a Monday arrival before the branch opens", t, func() {
		early := rec(-30, 1, 1, 1) // 08:30
		rows, err := features.New().Transform([]model.CleanedRecord{early})
		So(err, ShouldBeNil)

		Convey("Then minutes since open wrap around the day", func() {
			So(rows[0].MinutesSinceOpen, ShouldEqual, 1410)
			So(rows[0].DayOfWeek, ShouldEqual, 0)
			So(rows[0].IsWeekend, ShouldBeFalse)
			So(rows[0].ArrivalHour, ShouldEqual, 8)
		})

		Convey("Then a single row fills its gap with zero", func() {
			So(rows[0].ArrivalGapSeconds, ShouldEqual, 0)
		})
	})

	Convey("Given a branch opening at 08:00 in another zone", t, func() {
		loc := time.FixedZone("branch", 2*3600)
		f := features.New(features.WithBranchOpen(8*time.Hour), features.WithLocation(loc))
		rows, err := f.Transform([]model.CleanedRecord{rec(0, 1, 1, 1)}) // 11:00 local

		Convey("Then calendar features use local time", func() {
			So(err, ShouldBeNil)
			So(rows[0].ArrivalHour, ShouldEqual, 11)
			So(rows[0].MinutesSinceOpen, ShouldEqual, 180)
		})
	})
}

func TestAppendInvariance(t *testing.T) {
	Convey("Given a time-ordered sequence", t, func() {
		all := synthetic(60)
		f := features.New()

		Convey("When rows are appended to its end", func() {
			prefix, err := f.Transform(all[:40])
			So(err, ShouldBeNil)
			extended, err := f.Transform(all)
			So(err, ShouldBeNil)

			Convey("Then earlier feature rows do not change", func() {
				for i := range prefix {
					So(extended[i], ShouldResemble, prefix[i])
				}
			})
		})

		Convey("When a later row is mutated", func() {
			mutated := make([]model.CleanedRecord, len(all))
			copy(mutated, all)
			mutated[50].QueueLength = 999
			mutated[50].WaitTime = 999
			mutated[50].Finish = mutated[50].Finish.Add(time.Hour)

			a, err := f.Transform(all)
			So(err, ShouldBeNil)
			b, err := f.Transform(mutated)
			So(err, ShouldBeNil)

			Convey("Then rows before it are unaffected", func() {
				for i := 0; i < 50; i++ {
					So(b[i], ShouldResemble, a[i])
				}
			})
		})

		Convey("When a row inside the first window is mutated", func() {
			mutated := make([]model.CleanedRecord, len(all))
			copy(mutated, all)
			mutated[3].QueueLength = 999
			mutated[3].WaitTime = 999
			mutated[3].ComputedService = 999

			a, err := f.Transform(all)
			So(err, ShouldBeNil)
			b, err := f.Transform(mutated)
			So(err, ShouldBeNil)

			Convey("Then the rows before it are unaffected", func() {
				for i := 0; i < 3; i++ {
					So(b[i], ShouldResemble, a[i])
				}
			})
		})

		Convey("When a prefix shorter than the window grows by one row", func() {
			short, err := f.Transform(all[:3])
			So(err, ShouldBeNil)
			longer, err := f.Transform(all[:4])
			So(err, ShouldBeNil)

			Convey("Then the first rows do not change", func() {
				So(len(longer), ShouldEqual, 4)
				for i := range short {
					So(longer[i], ShouldResemble, short[i])
				}
			})
		})

		Convey("When the earliest rows change their own outcomes", func() {
			mutated := make([]model.CleanedRecord, len(all))
			copy(mutated, all)
			for i := 0; i < 3; i++ {
				mutated[i].WaitTime = 1000
				mutated[i].ComputedService = 1000
			}

			a, err := f.Transform(all)
			So(err, ShouldBeNil)
			b, err := f.Transform(mutated)
			So(err, ShouldBeNil)

			Convey("Then the first row's features ignore them", func() {
				for _, c := range features.Columns {
					want, _ := a[0].Value(c)
					got, _ := b[0].Value(c)
					So(got, ShouldEqual, want)
				}
			})
		})
	})
}

func TestTransformErrors(t *testing.T) {
	Convey("Given unsorted input", t, func() {
		cleaned := []model.CleanedRecord{rec(5, 1, 1, 1), rec(1, 1, 1, 1)}

		Convey("Then Transform refuses it", func() {
			_, err := features.New().Transform(cleaned)
			So(errors.Is(err, features.ErrNotSorted), ShouldBeTrue)
		})
	})

	Convey("Given empty input", t, func() {
		rows, err := features.New().Transform(nil)

		Convey("Then an empty matrix is returned", func() {
			So(err, ShouldBeNil)
			So(rows, ShouldBeEmpty)
		})
	})
}
