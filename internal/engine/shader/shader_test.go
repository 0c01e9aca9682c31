package shader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/model-viewer/pkg/math"
)

const (
	vertSrc = "#version 410 core\nvoid main() {}\n"
	fragSrc = "#version 410 core\nout vec4 c;\nvoid main() { c = vec4(1); }\n"
)

func TestNewLinks(t *testing.T) {
	d := newFakeDriver()
	p, err := New(d, vertSrc, fragSrc)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.State() != Linked {
		t.Errorf("state = %v, want linked", p.State())
	}
	if !d.programs[p.Handle()] {
		t.Error("program handle not alive in driver")
	}
	if len(d.shaders) != 0 {
		t.Errorf("%d stage objects leaked after link", len(d.shaders))
	}

	p.Use()
	if d.bound != p.Handle() {
		t.Errorf("bound program = %d, want %d", d.bound, p.Handle())
	}
}

func TestNewFailures(t *testing.T) {
	tests := []struct {
		name   string
		driver *fakeDriver
		vert   string
		frag   string
		stage  Stage
	}{
		{"vertex syntax", newFakeDriver(), "syntax error", fragSrc, StageVertex},
		{"fragment syntax", newFakeDriver(), vertSrc, "syntax error", StageFragment},
		{"fragment forced", newFakeDriver().failAt(StageFragment), vertSrc, fragSrc, StageFragment},
		{"link", newFakeDriver().failAt(StageLink), vertSrc, fragSrc, StageLink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.driver, tt.vert, tt.frag)
			if p != nil {
				t.Error("failed build returned a program")
			}

			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("error = %v, want *CompileError", err)
			}
			if ce.Stage != tt.stage {
				t.Errorf("stage = %v, want %v", ce.Stage, tt.stage)
			}
			if ce.Log == "" {
				t.Error("empty info log")
			}
			if len(tt.driver.shaders) != 0 || len(tt.driver.programs) != 0 {
				t.Errorf("leaked objects: %d shaders, %d programs", len(tt.driver.shaders), len(tt.driver.programs))
			}
		})
	}
}

func TestSetUniforms(t *testing.T) {
	d := newFakeDriver("flag", "count", "alpha", "uv", "pos", "color", "rot", "normalMatrix", "mvp")
	p, err := New(d, vertSrc, fragSrc)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	p.SetBool("flag", true)
	p.SetInt("count", 7)
	p.SetFloat("alpha", 0.5)
	p.SetVec2("uv", math.Vec2{X: 1, Y: 2})
	p.SetVec3("pos", math.Vec3{X: 1, Y: 2, Z: 3})
	p.SetVec4("color", math.Vec4{1, 0, 0, 1})
	p.SetMat2("rot", math.Identity2())
	p.SetMat3("normalMatrix", math.Identity3())
	p.SetMat4("mvp", math.Translate(1, 2, 3))

	if got := d.ints[p.Location("flag")]; got != 1 {
		t.Errorf("flag = %d, want 1", got)
	}
	if got := d.ints[p.Location("count")]; got != 7 {
		t.Errorf("count = %d, want 7", got)
	}
	if got := d.floats[p.Location("alpha")]; len(got) != 1 || got[0] != 0.5 {
		t.Errorf("alpha = %v", got)
	}
	if got := d.floats[p.Location("pos")]; len(got) != 3 || got[2] != 3 {
		t.Errorf("pos = %v", got)
	}
	if got := d.floats[p.Location("rot")]; len(got) != 4 {
		t.Errorf("rot = %v", got)
	}
	if got := d.floats[p.Location("normalMatrix")]; len(got) != 9 {
		t.Errorf("normalMatrix = %v", got)
	}
	if got := d.floats[p.Location("mvp")]; len(got) != 16 || got[12] != 1 || got[14] != 3 {
		t.Errorf("mvp = %v", got)
	}
}

func TestSetUnknownUniformIsNoop(t *testing.T) {
	d := newFakeDriver("view", "count")
	p, err := New(d, vertSrc, fragSrc)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	view := math.Translate(0, 0, -3)
	p.SetMat4("view", view)
	p.SetInt("count", 4)

	// The fake panics on any upload to NotFound, so reaching the checks
	// below also proves nothing was sent.
	p.SetMat4("missing", math.Identity())
	p.SetInt("missing", 9)
	p.SetBool("also_missing", true)
	p.SetVec3("also_missing", math.Vec3{X: 1})

	got := d.floats[p.Location("view")]
	for i := range view {
		if got[i] != view[i] {
			t.Fatalf("view[%d] = %f after unknown upload, want %f", i, got[i], view[i])
		}
	}
	if d.ints[p.Location("count")] != 4 {
		t.Errorf("count = %d, want 4", d.ints[p.Location("count")])
	}
	if p.Location("missing") != NotFound {
		t.Errorf("Location(missing) = %d, want NotFound", p.Location("missing"))
	}
}

func TestLocationIsCached(t *testing.T) {
	d := newFakeDriver("view")
	p, _ := New(d, vertSrc, fragSrc)

	for i := 0; i < 5; i++ {
		p.SetMat4("view", math.Identity())
		p.SetMat4("missing", math.Identity())
	}
	if d.calls != 2 {
		t.Errorf("driver lookups = %d, want 2", d.calls)
	}
}

func TestDelete(t *testing.T) {
	d := newFakeDriver()
	p, _ := New(d, vertSrc, fragSrc)
	h := p.Handle()
	p.Delete()

	if d.programs[h] {
		t.Error("program still alive after Delete")
	}
	if p.Handle() != 0 {
		t.Errorf("handle = %d after Delete, want 0", p.Handle())
	}
}

func TestLoadSources(t *testing.T) {
	dir := t.TempDir()
	vert := filepath.Join(dir, "model.vert")
	frag := filepath.Join(dir, "model.frag")
	if err := os.WriteFile(vert, []byte(vertSrc), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(frag, []byte(fragSrc), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(newFakeDriver(), vert, frag); err != nil {
		t.Errorf("Load() error = %v", err)
	}

	// Empty paths fall back to the embedded sources.
	if _, err := Load(newFakeDriver(), "", ""); err != nil {
		t.Errorf("Load() with embedded sources error = %v", err)
	}
}

func TestLoadMissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(newFakeDriver(), filepath.Join(dir, "nope.vert"), "")

	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("error = %v, want ErrSourceNotFound", err)
	}
	var se *SourceError
	if !errors.As(err, &se) || filepath.Base(se.Path) != "nope.vert" {
		t.Errorf("error = %#v, want *SourceError for nope.vert", err)
	}
}

func TestLoadUnreadableSource(t *testing.T) {
	// A directory exists but cannot be read as a file.
	dir := t.TempDir()
	_, err := Load(newFakeDriver(), "", dir)

	if err == nil {
		t.Fatal("expected error reading a directory")
	}
	if errors.Is(err, ErrSourceNotFound) {
		t.Error("read error reported as not found")
	}
	var se *SourceError
	if !errors.As(err, &se) {
		t.Errorf("error = %v, want *SourceError", err)
	}
}
