package tracer

import (
	"testing"
)

func TestNaiveScheduler(t *testing.T) {
	type spec struct {
		speed1   float32
		speed2   float32
		frameH   uint32
		expRows1 uint32
		expRows2 uint32
	}
	specs := []spec{
		{1, 2, 10, 4, 6},
		{2, 1, 10, 7, 3},
		{1, 1000, 10, 1, 9},
	}

	for index, s := range specs {
		tr1 := makeMockTracer("mock-1", s.speed1)
		tr2 := makeMockTracer("mock-2", s.speed2)
		tracers := []Tracer{tr1, tr2}

		sch := NewNaiveScheduler()
		blockAssignment := sch.Schedule(tracers, s.frameH)

		if blockAssignment[0] != s.expRows1 {
			t.Fatalf("[spec %d] expected tracer 0 to be assigned %d rows; got %d", index, s.expRows1, blockAssignment[0])
		}

		if blockAssignment[1] != s.expRows2 {
			t.Fatalf("[spec %d] expected tracer 1 to be assigned %d rows; got %d", index, s.expRows2, blockAssignment[1])
		}
	}
}

func TestPerfectScheduler(t *testing.T) {
	type spec struct {
		frameH   uint32
		rTime1   int64
		rTime2   int64
		expRows1 uint32
		expRows2 uint32
	}
	specs := []spec{
		// First call always behaves like the naive scheduler
		{10, 1, 5, 5, 5},
		// Second call should use the render times to assign rows
		{10, 1, 5, 9, 1},
		// This time tracer 2 performed much better
		{10, 5, 1, 7, 3},
	}

	// Tracers have same speed
	tr1 := makeMockTracer("mock-1", 1)
	tr2 := makeMockTracer("mock-2", 1)
	tracers := []Tracer{tr1, tr2}

	sch := NewPerfectScheduler()
	for index, s := range specs {
		tr1.stats.BlockTime = s.rTime1
		tr2.stats.BlockTime = s.rTime2

		blockAssignment := sch.Schedule(tracers, s.frameH)

		if blockAssignment[0] != s.expRows1 {
			t.Fatalf("[spec %d] expected tracer 0 to be assigned %d rows; got %d", index, s.expRows1, blockAssignment[0])
		}

		if blockAssignment[1] != s.expRows2 {
			t.Fatalf("[spec %d] expected tracer 1 to be assigned %d rows; got %d", index, s.expRows2, blockAssignment[1])
		}

		tr1.stats.BlockH = blockAssignment[0]
		tr2.stats.BlockH = blockAssignment[1]
	}
}

func TestSchedulerRowsAddUp(t *testing.T) {
	// More tracers than rows; the one row minimum must not overshoot
	tracers := []Tracer{
		makeMockTracer("mock-1", 1),
		makeMockTracer("mock-2", 1),
		makeMockTracer("mock-3", 1),
		makeMockTracer("mock-4", 100),
	}

	for _, frameH := range []uint32{1, 3, 4, 17, 1080} {
		rows := NewNaiveScheduler().Schedule(tracers, frameH)
		var total uint32
		for _, r := range rows {
			total += r
		}
		if total != frameH {
			t.Fatalf("[frameH %d] expected assignments to add up to %d; got %d (%v)", frameH, frameH, total, rows)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []Strategy{Unordered, Ordered, BruteForce} {
		got, err := ParseStrategy(s.String())
		if err != nil {
			t.Fatal(err)
		}
		if got != s {
			t.Fatalf("expected strategy %s; got %s", s, got)
		}
	}

	if _, err := ParseStrategy("sah"); err == nil {
		t.Fatal("expected unknown strategy to be rejected")
	}
}

func TestFrameBufferClear(t *testing.T) {
	fb := NewFrameBuffer(4, 2)
	if len(fb.HitIDs) != 8 || len(fb.Depth) != 8 {
		t.Fatalf("expected 8 pixels; got %d/%d", len(fb.HitIDs), len(fb.Depth))
	}
	for i := range fb.HitIDs {
		if fb.HitIDs[i] != -1 || fb.Depth[i] < 1e30 {
			t.Fatalf("expected pixel %d to be a miss; got id %d depth %f", i, fb.HitIDs[i], fb.Depth[i])
		}
	}
}

type mockTracer struct {
	id    string
	speed float32
	stats *Stats
}

func makeMockTracer(id string, speed float32) *mockTracer {
	return &mockTracer{
		id:    id,
		speed: speed,
		stats: &Stats{},
	}
}

func (mt *mockTracer) Id() string {
	return mt.id
}

func (mt *mockTracer) SpeedEstimate() float32 {
	return mt.speed
}

func (mt *mockTracer) Setup(_ *FrameBuffer) error {
	return nil
}

func (mt *mockTracer) Close() {
}

func (mt *mockTracer) Enqueue(_ BlockRequest) {
}

func (mt *mockTracer) AppendChange(_ ChangeType, _ interface{}) {
}

func (mt *mockTracer) ApplyPendingChanges() error {
	return nil
}

func (mt *mockTracer) Stats() *Stats {
	return mt.stats
}
