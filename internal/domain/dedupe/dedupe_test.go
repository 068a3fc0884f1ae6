package dedupe_test

import (
	"testing"
	"time"

	dedupe "github.com/okian/waitcast/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func key(minute int) dedupe.Key {
	base := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	a := base.Add(time.Duration(minute) * time.Minute)
	return dedupe.KeyOf(a, a.Add(2*time.Minute), a.Add(7*time.Minute))
}

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When recording a new key", func() {
			seen := d.SeenAndRecord(key(1))

			Convey("Then it should return false and record the key", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same triple is recorded twice", func() {
			d.SeenAndRecord(key(1))
			seen := d.SeenAndRecord(key(1))

			Convey("Then the second occurrence is reported as seen", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When triples share an arrival but differ in finish", func() {
			a := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
			first := d.SeenAndRecord(dedupe.KeyOf(a, a, a.Add(time.Minute)))
			second := d.SeenAndRecord(dedupe.KeyOf(a, a, a.Add(2*time.Minute)))

			Convey("Then both are distinct", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 2)
			})
		})

		Convey("When the same instant is given in another zone", func() {
			a := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
			b := a.In(time.FixedZone("X", 7200))
			d.SeenAndRecord(dedupe.KeyOf(a, a, a))

			Convey("Then it is the same key", func() {
				So(d.SeenAndRecord(dedupe.KeyOf(b, b, b)), ShouldBeTrue)
			})
		})

		Convey("When many distinct keys are recorded", func() {
			for i := 0; i < 1000; i++ {
				So(d.SeenAndRecord(key(i)), ShouldBeFalse)
			}

			Convey("Then none is forgotten", func() {
				So(d.Size(), ShouldEqual, 1000)
				So(d.SeenAndRecord(key(0)), ShouldBeTrue)
				So(d.SeenAndRecord(key(999)), ShouldBeTrue)
			})
		})

		Convey("When a key is rendered", func() {
			k := dedupe.KeyOf(time.Unix(0, 1), time.Unix(0, 2), time.Unix(0, 3))

			Convey("Then it lists the three instants", func() {
				So(k.String(), ShouldEqual, "1/2/3")
			})
		})
	})
}
