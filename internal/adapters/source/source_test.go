package source_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/waitcast/internal/adapters/source"
	"github.com/okian/waitcast/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const extract = `visit_id,arrival_time,start_time,finish_time,wait_time,queue_length
1,2024-01-08 09:00:00,2024-01-08 09:05:00,2024-01-08 09:12:00,5,3
2,1704704700,2024-01-08T09:08:00Z,2024-01-08 09:15,,4
3,08-Jan-2024 09:10:00,2024-01-08 09:16:00,2024-01-08 09:20:00,n/a,
`

func TestRead(t *testing.T) {
	Convey("Given an extract with an extra column and mixed formats", t, func() {
		r := source.New()

		Convey("When reading it", func() {
			records, err := r.Read(strings.NewReader(extract))

			Convey("Then every row is kept as text with its line number", func() {
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 3)
				So(records[0].Line, ShouldEqual, 2)
				So(records[0].ArrivalTime, ShouldEqual, "2024-01-08 09:00:00")
				So(records[1].ArrivalTime, ShouldEqual, "1704704700")
				So(records[1].WaitTime, ShouldEqual, "")
				So(records[2].WaitTime, ShouldEqual, "n/a")
				So(records[2].QueueLength, ShouldEqual, "")
				So(records[2].Line, ShouldEqual, 4)
			})
		})

		Convey("When a required column is missing", func() {
			_, err := r.Read(strings.NewReader("arrival_time,start_time,finish_time,wait_time\nx,y,z,1\n"))

			Convey("Then the column is named", func() {
				So(errors.Is(err, source.ErrMissingColumn), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, model.ColQueueLength)
			})
		})

		Convey("When only a header is present", func() {
			records, err := r.Read(strings.NewReader("arrival_time,start_time,finish_time,wait_time,queue_length\n"))

			Convey("Then there are no records", func() {
				So(err, ShouldBeNil)
				So(records, ShouldBeEmpty)
			})
		})

		Convey("When the input is empty", func() {
			_, err := r.Read(strings.NewReader(""))
			So(errors.Is(err, source.ErrRead), ShouldBeTrue)
		})
	})

	Convey("Given a semicolon separated extract", t, func() {
		r := source.New(source.WithDelimiter(';'))
		in := "arrival_time;start_time;finish_time;wait_time;queue_length\r\n" +
			"2024-01-08 09:00:00;2024-01-08 09:01:00;2024-01-08 09:02:00;1;0\r\n"

		records, err := r.Read(strings.NewReader(in))

		Convey("Then it is parsed with the configured delimiter", func() {
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 1)
			So(records[0].QueueLength, ShouldEqual, "0")
		})
	})
}

func TestReadFile(t *testing.T) {
	Convey("Given a path that does not exist", t, func() {
		path := filepath.Join(t.TempDir(), "missing.csv")
		_, err := source.New().ReadFile(path)

		Convey("Then an InputNotFoundError carries the path", func() {
			So(errors.Is(err, source.ErrInputNotFound), ShouldBeTrue)
			var nf *source.InputNotFoundError
			So(errors.As(err, &nf), ShouldBeTrue)
			So(nf.Path, ShouldEqual, path)
		})
	})

	Convey("Given an extract on disk", t, func() {
		path := filepath.Join(t.TempDir(), "visits.csv")
		So(os.WriteFile(path, []byte(extract), 0o600), ShouldBeNil)

		records, err := source.New().ReadFile(path)

		Convey("Then it reads like Read", func() {
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 3)
		})
	})
}
