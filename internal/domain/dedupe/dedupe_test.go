package dedupe_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/medreach/vitalguard/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDeduperRecording(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("A new reading ID is recorded and reported as unseen", func() {
			So(d.SeenAndRecord(ctx, "reading-1"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 1)
		})

		Convey("A resubmitted reading ID is reported as seen", func() {
			d.SeenAndRecord(ctx, "reading-1")
			So(d.SeenAndRecord(ctx, "reading-1"), ShouldBeTrue)
			So(d.Size(), ShouldEqual, 1)
		})

		Convey("Distinct reading IDs are all recorded", func() {
			for i := 0; i < 5; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("reading-%d", i)), ShouldBeFalse)
			}
			So(d.Size(), ShouldEqual, 5)
			for i := 0; i < 5; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("reading-%d", i)), ShouldBeTrue)
			}
		})

		Convey("Unrecord forgets a recorded ID", func() {
			d.SeenAndRecord(ctx, "reading-1")
			d.Unrecord(ctx, "reading-1")

			So(d.Size(), ShouldEqual, 0)
			So(d.SeenAndRecord(ctx, "reading-1"), ShouldBeFalse)
		})

		Convey("Unrecord of an unknown ID is a no-op", func() {
			d.Unrecord(ctx, "never-recorded")
			So(d.Size(), ShouldEqual, 0)
		})
	})
}

func TestDeduperEviction(t *testing.T) {
	ctx := context.Background()

	Convey("Given a deduper bounded to three IDs", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

		for i := 1; i <= 3; i++ {
			So(d.SeenAndRecord(ctx, fmt.Sprintf("reading-%d", i)), ShouldBeFalse)
		}
		So(d.Size(), ShouldEqual, 3)

		Convey("A fourth ID evicts the oldest and holds the size at capacity", func() {
			So(d.SeenAndRecord(ctx, "reading-4"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 3)

			// reading-1 was evicted, so recording it again is a fresh insert.
			So(d.SeenAndRecord(ctx, "reading-1"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 3)
		})

		Convey("An unrecorded slot does not disturb later eviction", func() {
			d.Unrecord(ctx, "reading-2")
			So(d.Size(), ShouldEqual, 2)

			So(d.SeenAndRecord(ctx, "reading-4"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "reading-5"), ShouldBeFalse)
			So(d.Size(), ShouldBeLessThanOrEqualTo, 3)
		})
	})

	Convey("Given a deduper bounded to a single ID", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1))

		So(d.SeenAndRecord(ctx, "reading-1"), ShouldBeFalse)
		So(d.SeenAndRecord(ctx, "reading-2"), ShouldBeFalse)
		So(d.Size(), ShouldEqual, 1)

		// Only the most recent ID survives.
		So(d.SeenAndRecord(ctx, "reading-1"), ShouldBeFalse)
		So(d.Size(), ShouldEqual, 1)
	})

	Convey("Given an unbounded deduper", t, func() {
		for _, maxSize := range []int{0, -1} {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(maxSize))
			const n = 1000
			for i := 0; i < n; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("reading-%d", i)), ShouldBeFalse)
			}
			So(d.Size(), ShouldEqual, int64(n))
			So(d.SeenAndRecord(ctx, "reading-0"), ShouldBeTrue)
		}
	})
}

func TestDeduperConcurrency(t *testing.T) {
	ctx := context.Background()

	Convey("Given concurrent writers", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10000))
		const workers = 10
		const perWorker = 100

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					d.SeenAndRecord(ctx, fmt.Sprintf("reading-%d-%d", w, i))
				}
			}(w)
		}
		wg.Wait()

		Convey("Every distinct ID is recorded exactly once", func() {
			So(d.Size(), ShouldEqual, int64(workers*perWorker))
		})

		Convey("Concurrent Unrecord drains all entries", func() {
			wg = sync.WaitGroup{}
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						d.Unrecord(ctx, fmt.Sprintf("reading-%d-%d", w, i))
					}
				}(w)
			}
			wg.Wait()
			So(d.Size(), ShouldEqual, 0)
		})
	})
}

func TestDeduperEdgeCases(t *testing.T) {
	ctx := context.Background()

	Convey("Given unusual reading IDs", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("The empty string is a valid ID", func() {
			So(d.SeenAndRecord(ctx, ""), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, ""), ShouldBeTrue)
		})

		Convey("Very long IDs are handled", func() {
			long := strings.Repeat("r", 10000)
			So(d.SeenAndRecord(ctx, long), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, long), ShouldBeTrue)
		})

		Convey("A nil context does not panic", func() {
			So(func() { d.SeenAndRecord(nil, "reading-1") }, ShouldNotPanic)
			So(func() { d.Unrecord(nil, "reading-1") }, ShouldNotPanic)
		})
	})
}
