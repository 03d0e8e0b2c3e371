package cpu

import (
	"errors"
	"testing"

	"github.com/VincentPHAM98/SI3D/scene"
	"github.com/VincentPHAM98/SI3D/scene/bvh"
	"github.com/VincentPHAM98/SI3D/tracer"
	"github.com/VincentPHAM98/SI3D/types"
)

func traceFrame(t *testing.T, tr tracer.Tracer, fb *tracer.FrameBuffer) error {
	doneChan := make(chan uint32, 1)
	errChan := make(chan error, 1)
	tr.Enqueue(tracer.BlockRequest{
		BlockY:   0,
		BlockH:   fb.H,
		DoneChan: doneChan,
		ErrChan:  errChan,
	})

	select {
	case rows := <-doneChan:
		if rows != fb.H {
			t.Fatalf("expected %d completed rows; got %d", fb.H, rows)
		}
		return nil
	case err := <-errChan:
		return err
	}
}

func buildTree(t *testing.T, mesh scene.Mesh) *bvh.Tree {
	tree, err := bvh.Build(scene.Triangles(mesh), bvh.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestTracerCoveringTriangle(t *testing.T) {
	mesh, err := scene.NewTriangleMesh([]types.Vec3{
		types.XYZ(-100, -100, 0), types.XYZ(100, -100, 0), types.XYZ(0, 100, 0),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	cam := scene.NewCamera(45, 1)
	cam.LookAt(types.XYZ(0, 0, 0), 5)

	tr, err := NewTracer("test", tracer.Ordered)
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	fb := tracer.NewFrameBuffer(8, 8)
	if err = tr.Setup(fb); err != nil {
		t.Fatal(err)
	}
	tr.AppendChange(tracer.SetScene, buildTree(t, mesh))
	tr.AppendChange(tracer.UpdateCamera, cam.Snapshot())

	if err = traceFrame(t, tr, fb); err != nil {
		t.Fatal(err)
	}

	for i, id := range fb.HitIDs {
		if id != 0 {
			t.Fatalf("expected pixel %d to hit triangle 0; got %d", i, id)
		}
		if fb.Depth[i] < 5-1e-3 || fb.Depth[i] > 6 {
			t.Fatalf("expected pixel %d depth in [5, 6]; got %f", i, fb.Depth[i])
		}
	}

	stats := tr.Stats()
	if stats.Rays != 64 || stats.Hits != 64 || stats.BlockH != 8 {
		t.Fatalf("expected 64 rays/hits for 8 rows; got %+v", *stats)
	}
}

func TestTracerStrategiesAgree(t *testing.T) {
	mesh, err := scene.GenerateCubes(4, 1, 1.5)
	if err != nil {
		t.Fatal(err)
	}
	tree := buildTree(t, mesh)

	cam := scene.NewCamera(60, 1)
	cam.LookAtBox(mesh.Bounds())
	cam.Rotate(25, 30)

	var ref *tracer.FrameBuffer
	for _, strategy := range []tracer.Strategy{tracer.BruteForce, tracer.Unordered, tracer.Ordered} {
		tr, err := NewTracer(strategy.String(), strategy)
		if err != nil {
			t.Fatal(err)
		}

		fb := tracer.NewFrameBuffer(32, 24)
		if err = tr.Setup(fb); err != nil {
			t.Fatal(err)
		}
		tr.AppendChange(tracer.SetScene, tree)
		tr.AppendChange(tracer.UpdateCamera, cam.Snapshot())
		err = traceFrame(t, tr, fb)
		tr.Close()
		if err != nil {
			t.Fatalf("[%s] %v", strategy, err)
		}

		if ref == nil {
			ref = fb
			continue
		}
		for i := range fb.HitIDs {
			if fb.HitIDs[i] != ref.HitIDs[i] {
				t.Fatalf("[%s] expected pixel %d to hit %d; got %d", strategy, i, ref.HitIDs[i], fb.HitIDs[i])
			}
			if fb.Depth[i] != ref.Depth[i] {
				t.Fatalf("[%s] expected pixel %d depth %f; got %f", strategy, i, ref.Depth[i], fb.Depth[i])
			}
		}
	}
}

func TestTracerErrors(t *testing.T) {
	tr, err := NewTracer("test", tracer.Unordered)
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	fb := tracer.NewFrameBuffer(2, 2)
	if err = traceFrame(t, tr, fb); !errors.Is(err, tracer.ErrNoFrame) {
		t.Fatalf("expected error %v; got %v", tracer.ErrNoFrame, err)
	}

	if err = tr.Setup(fb); err != nil {
		t.Fatal(err)
	}
	if err = traceFrame(t, tr, fb); !errors.Is(err, tracer.ErrNoSceneData) {
		t.Fatalf("expected error %v; got %v", tracer.ErrNoSceneData, err)
	}

	mesh, _ := scene.GenerateCubes(1, 1, 1)
	tr.AppendChange(tracer.SetScene, buildTree(t, mesh))
	if err = traceFrame(t, tr, fb); !errors.Is(err, tracer.ErrNoCamera) {
		t.Fatalf("expected error %v; got %v", tracer.ErrNoCamera, err)
	}

	if _, err = NewTracer("bogus", tracer.Strategy(42)); err == nil {
		t.Fatal("expected unsupported strategy to be rejected")
	}
}

func TestTracerEnqueueAfterClose(t *testing.T) {
	tr, err := NewTracer("test", tracer.Ordered)
	if err != nil {
		t.Fatal(err)
	}

	fb := tracer.NewFrameBuffer(2, 2)
	if err = tr.Setup(fb); err != nil {
		t.Fatal(err)
	}
	tr.Close()

	// Closing twice is a no-op and later requests are answered with an error
	tr.Close()
	for attempt := 0; attempt < 3; attempt++ {
		if err = traceFrame(t, tr, fb); !errors.Is(err, tracer.ErrTracerClosed) {
			t.Fatalf("[attempt %d] expected error %v; got %v", attempt, tracer.ErrTracerClosed, err)
		}
	}
}
