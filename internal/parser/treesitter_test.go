//go:build cgo

package parser

import (
	"testing"

	"repomap/internal/slogutil"
)

func TestTreeSitterParse(t *testing.T) {
	nodes := mustParse(t, NewTreeSitter(), sampleSource)

	class, classIdx := findNode(t, nodes, NodeClass, "GameManager")
	if class.Parent != -1 {
		t.Errorf("class parent = %d, want -1", class.Parent)
	}
	if class.Line != 6 || class.EndLine != 20 {
		t.Errorf("class lines = %d-%d, want 6-20", class.Line, class.EndLine)
	}
	for _, base := range []string{"MonoBehaviour", "IGameService"} {
		b, _ := findNode(t, nodes, NodeBaseType, base)
		if b.Parent != classIdx {
			t.Errorf("base %q parent = %d, want %d", base, b.Parent, classIdx)
		}
	}

	field, _ := findNode(t, nodes, NodeField, "enemies")
	if field.Type != "List<Enemy>" || field.Parent != classIdx {
		t.Errorf("field = %+v, want List<Enemy> under class", field)
	}
	findNode(t, nodes, NodeTypeRef, "Enemy")

	prop, _ := findNode(t, nodes, NodeProperty, "Score")
	if prop.Type != "int" || prop.Parent != classIdx {
		t.Errorf("property = %+v", prop)
	}

	start, startIdx := findNode(t, nodes, NodeMethod, "StartGame")
	if start.Type != "void" || start.Params != "GameMode mode" {
		t.Errorf("method signature = %q %q", start.Type, start.Params)
	}

	for _, want := range []string{"EnemySpawner", "spawner.SpawnWave", "ScoreCalculator.Compute"} {
		inv, _ := findNode(t, nodes, NodeInvocation, want)
		if inv.Parent != startIdx {
			t.Errorf("invocation %q parent = %d, want %d", want, inv.Parent, startIdx)
		}
	}

	count, countIdx := findNode(t, nodes, NodeMethod, "CountLiving")
	if count.Parent != classIdx {
		t.Errorf("CountLiving parent = %d, want %d", count.Parent, classIdx)
	}
	access, _ := findNode(t, nodes, NodeIdentifier, "enemies.Count")
	if access.Parent != countIdx {
		t.Errorf("member access parent = %d, want %d", access.Parent, countIdx)
	}

	findNode(t, nodes, NodeInterface, "IGameService")
	findNode(t, nodes, NodeEnum, "GameMode")
}

func TestTreeSitterParse_MalformedRegion(t *testing.T) {
	src := `public class Survivor
{
    public void Ok() { Helper(); }
    public void Broken( {
}
`
	nodes := mustParse(t, NewTreeSitter(), src)

	findNode(t, nodes, NodeClass, "Survivor")
	findNode(t, nodes, NodeMethod, "Ok")
	findNode(t, nodes, NodeInvocation, "Helper")
}

func TestTreeSitterAvailable(t *testing.T) {
	p := New(slogutil.NewDiscardLogger())
	if p.Name() != "tree-sitter" {
		t.Fatalf("parser = %q, want tree-sitter in cgo builds", p.Name())
	}
}
