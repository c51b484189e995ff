package fingerprint

import (
	"testing"

	"repomap/internal/source"
)

func TestTreeStableAcrossOrder(t *testing.T) {
	a := source.File{Path: "A.cs", Text: "public class Alpha { }"}
	b := source.File{Path: "B.cs", Text: "public class Beta { }"}

	first := Tree([]source.File{a, b})
	second := Tree([]source.File{b, a})
	if first != second {
		t.Errorf("digest depends on input order: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(first))
	}
}

func TestTreeChangesWithContent(t *testing.T) {
	base := []source.File{{Path: "A.cs", Text: "public class Alpha { }"}}
	edited := []source.File{{Path: "A.cs", Text: "public class Alpha { int x; }"}}

	if Tree(base) == Tree(edited) {
		t.Error("digest did not change with file content")
	}
}

func TestTreeChangesWithPath(t *testing.T) {
	base := []source.File{{Path: "A.cs", Text: "x"}}
	moved := []source.File{{Path: "Core/A.cs", Text: "x"}}

	if Tree(base) == Tree(moved) {
		t.Error("digest did not change with file path")
	}
}

func TestTreeFramesBoundaries(t *testing.T) {
	// Same concatenated bytes split differently must not collide.
	joined := []source.File{{Path: "A.cs", Text: "ab"}}
	split := []source.File{{Path: "A.cs", Text: "a"}, {Path: "B.cs", Text: "b"}}

	if Tree(joined) == Tree(split) {
		t.Error("digest collides across file boundaries")
	}
}

func TestTreeEmpty(t *testing.T) {
	if got := Tree(nil); len(got) != 64 {
		t.Errorf("empty digest = %q", got)
	}
	if Tree(nil) != Tree([]source.File{}) {
		t.Error("nil and empty slices digest differently")
	}
}
