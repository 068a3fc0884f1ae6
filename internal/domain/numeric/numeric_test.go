package numeric_test

import (
	"math"
	"testing"

	"github.com/okian/waitcast/internal/domain/numeric"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMedian(t *testing.T) {
	Convey("Given unsorted samples", t, func() {
		Convey("When the length is odd", func() {
			So(numeric.Median([]float64{5, 1, 3}), ShouldEqual, 3)
		})

		Convey("When the length is even", func() {
			So(numeric.Median([]float64{4, 1, 3, 2}), ShouldEqual, 2.5)
		})

		Convey("When the slice is empty", func() {
			So(math.IsNaN(numeric.Median(nil)), ShouldBeTrue)
		})

		Convey("Then the input is left untouched", func() {
			x := []float64{3, 1, 2}
			numeric.Median(x)
			So(x, ShouldResemble, []float64{3, 1, 2})
		})
	})
}

func TestPercentile(t *testing.T) {
	Convey("Given a sample of 1..100", t, func() {
		x := make([]float64, 100)
		for i := range x {
			x[i] = float64(100 - i)
		}

		Convey("Then the extremes are the min and max", func() {
			So(numeric.Percentile(x, 0), ShouldEqual, 1)
			So(numeric.Percentile(x, 100), ShouldEqual, 100)
		})

		Convey("Then interior percentiles interpolate on rank (n-1)p", func() {
			So(numeric.Percentile(x, 50), ShouldAlmostEqual, 50.5, 1e-9)
			So(numeric.Percentile(x, 99), ShouldAlmostEqual, 99.01, 1e-9)
			So(numeric.Percentile(x, 1), ShouldAlmostEqual, 1.99, 1e-9)
		})

		Convey("Then out of range p is clamped", func() {
			So(numeric.Percentile(x, 150), ShouldEqual, 100)
		})
	})
}

func TestPercentileSmallSamples(t *testing.T) {
	Convey("Given small samples", t, func() {
		Convey("Then knots sit on the order statistics", func() {
			So(numeric.Percentile([]float64{50, 10, 40, 20, 30}, 25), ShouldEqual, 20)
			So(numeric.Percentile([]float64{4, 1, 3, 2}, 50), ShouldEqual, 2.5)
			So(numeric.Percentile([]float64{1, 2, 3, 4}, 75), ShouldEqual, 3.25)
		})

		Convey("Then a single value is every percentile", func() {
			So(numeric.Percentile([]float64{7}, 1), ShouldEqual, 7)
			So(numeric.Percentile([]float64{7}, 99), ShouldEqual, 7)
		})

		Convey("Then the input order is left alone", func() {
			x := []float64{3, 1, 2}
			_ = numeric.Percentile(x, 50)
			So(x, ShouldResemble, []float64{3, 1, 2})
		})
	})
}

func TestHelpers(t *testing.T) {
	Convey("Given the helper functions", t, func() {
		So(numeric.Mean([]float64{1, 2, 3}), ShouldEqual, 2)
		So(numeric.Std([]float64{2, 2, 2}), ShouldEqual, 0)
		So(numeric.Tail([]float64{1, 2, 3}, 2), ShouldResemble, []float64{2, 3})
		So(numeric.Tail([]float64{1, 2, 3}, 5), ShouldResemble, []float64{1, 2, 3})
		So(numeric.Tail([]float64{1, 2, 3}, 0), ShouldBeEmpty)
		So(numeric.Clamp(5, 0, 3), ShouldEqual, 3)
		So(numeric.Finite(math.Inf(1)), ShouldBeFalse)
		So(numeric.AllFinite([]float64{1, math.NaN()}), ShouldBeFalse)
		So(numeric.AllFinite([]float64{1, 2}), ShouldBeTrue)
	})
}
