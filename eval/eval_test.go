package eval

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/fractal/params"
)

func mandelbrot(z, c mgl32.Vec2) mgl32.Vec2 { return Square(z).Add(c) }

func greyscale(n float32, z, c mgl32.Vec2) mgl32.Vec3 {
	v := n / 100
	return mgl32.Vec3{v, v, v}
}

func newEvaluator(b params.Block) *Evaluator {
	return &Evaluator{Block: b, Iterate: mandelbrot, Colour: greyscale}
}

func baseBlock() params.Block {
	return params.Block{
		Scale:           1,
		EscapeThreshold: 2,
		Iterations:      100,
		Mode:            params.SeedZero,
		InteriorBlack:   true,
	}
}

func TestOriginNeverEscapes(t *testing.T) {
	e := newEvaluator(baseBlock())
	r := e.Trace(mgl32.Vec2{0, 0})
	if !r.Interior {
		t.Error("origin escaped the Mandelbrot set")
	}
	if r.N != 100 {
		t.Errorf("N = %v, want 100", r.N)
	}
}

func TestSeededPointBeyondThresholdEscapesImmediately(t *testing.T) {
	// Only the Julia seeding can put the starting z beyond the
	// threshold before any iteration runs.
	b := baseBlock()
	b.Mode = params.SeedJulia
	e := newEvaluator(b)
	r := e.Trace(mgl32.Vec2{3, 0})
	if r.Interior {
		t.Error("point beyond the threshold marked interior")
	}
	if r.N != 0 {
		t.Errorf("N = %v, want 0", r.N)
	}
}

func TestKnownEscapeCount(t *testing.T) {
	// c = 2: the orbit 0, 2 crosses the threshold after one step.
	// c = 1: the orbit 0, 1, 2 crosses after two.
	e := newEvaluator(baseBlock())
	if r := e.Trace(mgl32.Vec2{2, 0}); r.N != 1 {
		t.Errorf("Trace(2) N = %v, want 1", r.N)
	}
	if r := e.Trace(mgl32.Vec2{1, 0}); r.N != 2 {
		t.Errorf("Trace(1) N = %v, want 2", r.N)
	}
}

func TestCoordinateSeedMatchesZeroSeedShifted(t *testing.T) {
	// Seeding z = p with the counter at one is exactly one implicit
	// application of z^2 + c from the zero seed, so both traces agree.
	zero := newEvaluator(baseBlock())
	coord := baseBlock()
	coord.Mode = params.SeedCoordinate
	seeded := newEvaluator(coord)

	points := []mgl32.Vec2{{1, 0}, {0.3, 0.5}, {-1.2, 0.2}, {0.1, -0.8}}
	for _, p := range points {
		a := zero.Trace(p)
		b := seeded.Trace(p)
		if a.N != b.N || a.Interior != b.Interior {
			t.Errorf("Trace(%v): zero seed %+v, coordinate seed %+v", p, a, b)
		}
	}
}

func TestJuliaSeeding(t *testing.T) {
	b := baseBlock()
	b.Mode = params.SeedJulia
	b.InitialValue = [2]float32{-0.8, 0.156}

	var gotC []mgl32.Vec2
	e := &Evaluator{
		Block: b,
		Iterate: func(z, c mgl32.Vec2) mgl32.Vec2 {
			gotC = append(gotC, c)
			return Square(z).Add(c)
		},
		Colour: greyscale,
	}
	e.Trace(mgl32.Vec2{0.1, 0.2})

	if len(gotC) == 0 {
		t.Fatal("iteration function never ran")
	}
	want := mgl32.Vec2{-0.8, 0.156}
	for _, c := range gotC {
		if c != want {
			t.Fatalf("c = %v during Julia iteration, want %v", c, want)
		}
	}
}

func TestSmoothingSkippedAtZeroIterations(t *testing.T) {
	b := baseBlock()
	b.Mode = params.SeedJulia
	b.Smooth = true
	e := newEvaluator(b)
	r := e.Trace(mgl32.Vec2{3, 0})
	if r.N != 0 {
		t.Errorf("N = %v for an immediate escape with smoothing, want 0", r.N)
	}
}

func TestSmoothingAdjustsFractionally(t *testing.T) {
	plain := newEvaluator(baseBlock())
	b := baseBlock()
	b.Smooth = true
	smooth := newEvaluator(b)

	p := mgl32.Vec2{0.4, 0.3}
	raw := plain.Trace(p)
	if raw.Interior {
		t.Fatalf("test point %v does not escape", p)
	}
	adj := smooth.Trace(p)
	if math32.IsNaN(adj.N) || math32.IsInf(adj.N, 0) {
		t.Fatalf("smoothed N = %v", adj.N)
	}
	// Two extra applications and the log-log correction keep the value
	// within one count of the raw result.
	if d := math32.Abs(adj.N - raw.N); d > 1 {
		t.Errorf("smoothed N %v strays %v from raw %v", adj.N, d, raw.N)
	}
}

func TestSmoothingKeepsEscapeIndex(t *testing.T) {
	// Smoothing runs after the loop, so the number of in-loop formula
	// applications must not change: exactly two extra calls, no more.
	countingEvaluator := func(b params.Block) (*Evaluator, *int) {
		calls := new(int)
		return &Evaluator{
			Block: b,
			Iterate: func(z, c mgl32.Vec2) mgl32.Vec2 {
				*calls++
				return mandelbrot(z, c)
			},
			Colour: greyscale,
		}, calls
	}

	for _, p := range []mgl32.Vec2{{0.4, 0.3}, {-1.2, 0.3}, {0.3, 0.6}, {2, 2}} {
		plain, plainCalls := countingEvaluator(baseBlock())
		raw := plain.Trace(p)
		if float32(*plainCalls) != raw.N {
			t.Fatalf("%v: %d loop applications but N = %v", p, *plainCalls, raw.N)
		}

		b := baseBlock()
		b.Smooth = true
		smooth, smoothCalls := countingEvaluator(b)
		adj := smooth.Trace(p)

		if *smoothCalls != *plainCalls+2 {
			t.Errorf("%v: %d applications with smoothing, want %d", p, *smoothCalls, *plainCalls+2)
		}
		if adj.Interior != raw.Interior {
			t.Errorf("%v: Interior = %v with smoothing, %v without", p, adj.Interior, raw.Interior)
		}
	}
}

func TestHigherThresholdNeverLowersCount(t *testing.T) {
	near := baseBlock()
	far := baseBlock()
	far.EscapeThreshold = 100

	points := []mgl32.Vec2{{1, 0}, {0.5, 0.5}, {-1.5, 0.1}, {0.28, 0.53}}
	for _, p := range points {
		a := newEvaluator(near).Trace(p)
		b := newEvaluator(far).Trace(p)
		if b.N < a.N {
			t.Errorf("Trace(%v): threshold 100 gave N %v below threshold 2's %v", p, b.N, a.N)
		}
	}
}

func TestInteriorBlackPolicy(t *testing.T) {
	withBlack := newEvaluator(baseBlock())
	if c := withBlack.Pixel(mgl32.Vec2{0, 0}); c != (mgl32.Vec3{}) {
		t.Errorf("interior pixel = %v, want black", c)
	}

	b := baseBlock()
	b.InteriorBlack = false
	soft := newEvaluator(b)
	if c := soft.Pixel(mgl32.Vec2{0, 0}); c == (mgl32.Vec3{}) {
		t.Error("interior pixel is black with the policy disabled")
	}
}

func TestTraceDeterministic(t *testing.T) {
	b := baseBlock()
	b.Smooth = true
	e := newEvaluator(b)
	p := mgl32.Vec2{0.31, -0.47}
	if a, c := e.Trace(p), e.Trace(p); a != c {
		t.Errorf("repeated traces differ: %+v vs %+v", a, c)
	}
}

func TestRender(t *testing.T) {
	b := baseBlock()
	// Frame the classic view on a small image.
	b.Scale = 4.0 / 16
	b.Centre = [2]float32{8 * b.Scale, 8 * b.Scale}
	e := newEvaluator(b)

	img, err := e.Render(16, 16)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := img.Bounds().Dx(); got != 16 {
		t.Errorf("width = %d, want 16", got)
	}

	// The centre pixel sits in the set, a corner pixel outside it.
	centre := img.RGBAAt(8, 8)
	if centre.R != 0 || centre.G != 0 || centre.B != 0 {
		t.Errorf("centre pixel = %+v, want black", centre)
	}
	corner := img.RGBAAt(0, 0)
	if corner == centre {
		t.Error("corner pixel matches the interior colour")
	}
	if corner.A != 0xff {
		t.Errorf("alpha = %d, want 255", corner.A)
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	e := newEvaluator(baseBlock())
	if _, err := e.Render(0, 16); err == nil {
		t.Error("zero width accepted")
	}
	bad := baseBlock()
	bad.Iterations = 0
	if _, err := newEvaluator(bad).Render(4, 4); err == nil {
		t.Error("invalid block accepted")
	}
	if _, err := (&Evaluator{Block: baseBlock()}).Render(4, 4); err == nil {
		t.Error("evaluator without formulas accepted")
	}
}

func TestComplexHelpers(t *testing.T) {
	const eps = 1e-6
	near := func(a, b mgl32.Vec2) bool {
		return math32.Abs(a[0]-b[0]) < eps && math32.Abs(a[1]-b[1]) < eps
	}

	// (1+2i)(3+4i) = -5+10i
	if got := Mul(mgl32.Vec2{1, 2}, mgl32.Vec2{3, 4}); !near(got, mgl32.Vec2{-5, 10}) {
		t.Errorf("Mul = %v", got)
	}
	// Division inverts multiplication.
	a, b := mgl32.Vec2{1.5, -0.5}, mgl32.Vec2{2, 1}
	if got := Div(Mul(a, b), b); !near(got, a) {
		t.Errorf("Div(Mul(a, b), b) = %v, want %v", got, a)
	}
	// Square agrees with Mul of a value with itself.
	if got, want := Square(a), Mul(a, a); !near(got, want) {
		t.Errorf("Square = %v, Mul = %v", got, want)
	}
	// (0+1i)^2 = -1 through the polar form.
	if got := Pow(mgl32.Vec2{0, 1}, 2); !near(got, mgl32.Vec2{-1, 0}) {
		t.Errorf("Pow = %v", got)
	}
	// z^w with a real exponent matches Pow.
	if got, want := PowC(a, mgl32.Vec2{3, 0}), Pow(a, 3); !near(got, want) {
		t.Errorf("PowC = %v, Pow = %v", got, want)
	}
	if got := Abs(mgl32.Vec2{-2, 3}); got != (mgl32.Vec2{2, 3}) {
		t.Errorf("Abs = %v", got)
	}
}

func TestColourHelpers(t *testing.T) {
	const eps = 1e-6
	near := func(a, b mgl32.Vec3) bool {
		return math32.Abs(a[0]-b[0]) < eps && math32.Abs(a[1]-b[1]) < eps && math32.Abs(a[2]-b[2]) < eps
	}

	if got := HexRGB(0xff0000); !near(got, mgl32.Vec3{1, 0, 0}) {
		t.Errorf("HexRGB(0xff0000) = %v", got)
	}
	if got := HexRGB(0x336699); !near(got, mgl32.Vec3{0x33 / 255.0, 0x66 / 255.0, 0x99 / 255.0}) {
		t.Errorf("HexRGB(0x336699) = %v", got)
	}

	// Pure hues at full saturation and value.
	if got := HSVRGB(mgl32.Vec3{0, 1, 1}); !near(got, mgl32.Vec3{1, 0, 0}) {
		t.Errorf("HSVRGB(red) = %v", got)
	}
	if got := HSVRGB(mgl32.Vec3{1.0 / 3, 1, 1}); !near(got, mgl32.Vec3{0, 1, 0}) {
		t.Errorf("HSVRGB(green) = %v", got)
	}
	if got := HSVRGB(mgl32.Vec3{2.0 / 3, 1, 1}); !near(got, mgl32.Vec3{0, 0, 1}) {
		t.Errorf("HSVRGB(blue) = %v", got)
	}
	// Zero saturation is grey at the value.
	if got := HSVRGB(mgl32.Vec3{0.42, 0, 0.5}); !near(got, mgl32.Vec3{0.5, 0.5, 0.5}) {
		t.Errorf("HSVRGB(grey) = %v", got)
	}
	// The hue wraps.
	if got, want := HSVRGB(mgl32.Vec3{1.25, 1, 1}), HSVRGB(mgl32.Vec3{0.25, 1, 1}); !near(got, want) {
		t.Errorf("wrapped hue %v differs from %v", got, want)
	}
}
