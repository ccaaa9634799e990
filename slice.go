package slice

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/soypat/slice/infill"
	"github.com/soypat/slice/mesh"
	"github.com/soypat/slice/poly"
	"github.com/soypat/slice/support"
)

// State is the slicing run state machine:
// Idle → Running → {Completed | Cancelled | Failed}.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// ProgressFunc receives layer-granularity progress updates. It may be
// invoked from a worker goroutine and must be safe for that. Updates are
// advisory: monotonic in current, possibly batched.
type ProgressFunc func(current, total int, message string)

// Options tune one slicing run.
type Options struct {
	// Workers bounds the layer worker pool. Zero means one worker per
	// available CPU.
	Workers int
	// Progress, when non-nil, receives layer progress updates.
	Progress ProgressFunc
}

// Result is the outcome of a slicing run: the layers produced and the
// final state. A cancelled run carries the completed layer prefix.
type Result struct {
	Layers []Layer
	Status State
}

// Slicer runs the layer assembly pipeline. The zero value is ready to
// use; State reports the current run state for UI polling.
type Slicer struct {
	state int32
}

// State returns the current run state.
func (sl *Slicer) State() State { return State(atomic.LoadInt32(&sl.state)) }

func (sl *Slicer) setState(s State) { atomic.StoreInt32(&sl.state, int32(s)) }

// Slice cuts the mesh into layers and generates every per-layer toolpath.
// Cancellation via ctx is cooperative, polled at layer granularity: the
// completed layer prefix is returned with StatusCancelled, not an error.
// Setup failures (no faces, invalid settings) are fatal and returned as
// errors with a failed result.
func (sl *Slicer) Slice(ctx context.Context, m *mesh.Mesh, cfg Settings, opt Options) (Result, error) {
	fail := func(err error) (Result, error) {
		sl.setState(StateFailed)
		return Result{Status: StateFailed}, err
	}
	if err := cfg.Validate(); err != nil {
		return fail(fmt.Errorf("invalid settings: %w", err))
	}
	if m == nil || m.NumTriangles() == 0 {
		return fail(mesh.ErrEmptyMesh)
	}
	pattern, err := infill.ParsePattern(cfg.InfillPattern)
	if err != nil {
		return fail(err)
	}
	sl.setState(StateRunning)

	heights := mesh.ZHeights(m, cfg.FirstLayerHeight, cfg.LayerHeight)
	total := len(heights)
	progress := newProgressReporter(opt.Progress, total)
	progress.report(0, fmt.Sprintf("Slicing %d layers...", total))
	if total == 0 {
		sl.setState(StateCompleted)
		return Result{Status: StateCompleted}, nil
	}

	// Support is independent of walls and infill; compute it alongside
	// the layer pool.
	supportCh := make(chan map[int][]poly.Segment, 1)
	go func() {
		if !cfg.SupportEnabled {
			supportCh <- nil
			return
		}
		supportCh <- support.Compute(m, heights, cfg.LineWidth, cfg.SupportThreshold, cfg.SupportDensity)
	}()

	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if cfg.SpiralizeMode {
		workers = 1 // consecutive outer loops merge at emission; keep Z order cheap
	}
	if workers > total {
		workers = total
	}

	// Index-ordered result arena: each worker writes only its own index,
	// so no collection channel is needed.
	layers := make([]Layer, total)
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				layers[i] = sl.assembleLayer(m, &cfg, pattern, heights, i, total)
				progress.completed(i)
			}
		}()
	}

	// Cancellation stops enqueueing new layer tasks; in-flight layers
	// finish so the result stays a contiguous prefix.
	enqueued := 0
	cancelled := false
enqueue:
	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			cancelled = true
			break enqueue
		case jobs <- i:
			enqueued++
		}
	}
	close(jobs)
	wg.Wait()
	supportSegs := <-supportCh

	for i, segs := range supportSegs {
		if i < enqueued {
			layers[i].Support = segs
		}
	}

	if cancelled {
		sl.setState(StateCancelled)
		progress.report(enqueued, fmt.Sprintf("Cancelled after %d layers", enqueued))
		return Result{Layers: layers[:enqueued], Status: StateCancelled}, nil
	}
	sl.setState(StateCompleted)
	progress.report(total, fmt.Sprintf("Slicing complete: %d layers", total))
	return Result{Layers: layers, Status: StateCompleted}, nil
}

// assembleLayer builds one complete layer. Pure function of its inputs
// except for per-worker clipper scratch state inside the polygon kernel.
func (sl *Slicer) assembleLayer(m *mesh.Mesh, cfg *Settings, pattern infill.Pattern, heights []float64, index, total int) Layer {
	z := heights[index]
	layer := Layer{Z: z, Index: index}

	regions := mesh.Section(m, z)
	if len(regions) == 0 {
		return layer
	}

	solidLayer := index < cfg.BottomLayers || index >= total-cfg.TopLayers
	if cfg.SpiralizeMode && index >= cfg.BottomLayers {
		// Vase mode above the solid base: walls only.
		solidLayer = false
	}

	for _, region := range regions {
		if region.Area() < 1e-6 {
			continue // degenerate sliver, contributes nothing
		}
		walls, inner := buildPerimeters(region, cfg.WallCount, cfg.LineWidth)
		applySeam(walls, cfg.SeamPosition, index)
		orderWalls(walls, cfg.OuterBeforeInner)
		layer.Walls = append(layer.Walls, walls...)

		for _, in := range inner {
			switch {
			case cfg.SpiralizeMode && index >= cfg.BottomLayers:
				// no fill inside the spiral
			case solidLayer:
				// Solid alternates the skin direction by layer parity
				// itself; pass the bare base angle.
				layer.TopBottom = append(layer.TopBottom,
					infill.Generate(in, infill.Solid, 100, cfg.LineWidth, index, 45)...)
			case cfg.InfillDensity > 0:
				layer.Infill = append(layer.Infill,
					infill.Generate(in, pattern, cfg.InfillDensity, cfg.LineWidth, index, cfg.InfillAngle)...)
			}
		}

		if index == 0 && cfg.BrimEnabled {
			layer.Brim = append(layer.Brim, buildBrim(region, cfg.BrimWidth, cfg.LineWidth)...)
		}
	}
	return layer
}

// buildBrim generates bed-adhesion loops around the first layer by
// successive outward offsets of the original region.
func buildBrim(r poly.Region, brimWidth, lineWidth float64) []poly.Contour {
	loops := int(math.Round(brimWidth / lineWidth))
	if loops < 1 {
		loops = 1
	}
	var brim []poly.Contour
	for k := 1; k <= loops; k++ {
		for _, out := range poly.Offset(r, lineWidth*float64(k)) {
			brim = append(brim, out.Outer)
		}
	}
	return brim
}
