package parser

import (
	"context"
	"testing"
)

const sampleSource = `using System;
using System.Collections.Generic;

namespace Game.Core
{
    public class GameManager : MonoBehaviour, IGameService
    {
        [SerializeField]
        private List<Enemy> enemies;
        public int Score { get; set; }

        public void StartGame(GameMode mode)
        {
            var spawner = new EnemySpawner();
            spawner.SpawnWave(3);
            Score = ScoreCalculator.Compute(enemies);
        }

        private int CountLiving() => enemies.Count;
    }

    public interface IGameService
    {
        void StartGame(GameMode mode);
    }

    public enum GameMode
    {
        Easy,
        Hard,
    }
}
`

func mustParse(t *testing.T, p Parser, src string) []Node {
	t.Helper()
	nodes, err := p.Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return nodes
}

func findNode(t *testing.T, nodes []Node, kind NodeKind, name string) (Node, int) {
	t.Helper()
	for i, n := range nodes {
		if n.Kind == kind && n.Name == name {
			return n, i
		}
	}
	t.Fatalf("no %s node named %q", kind, name)
	return Node{}, -1
}

func countKind(nodes []Node, kind NodeKind) int {
	c := 0
	for _, n := range nodes {
		if n.Kind == kind {
			c++
		}
	}
	return c
}

func TestRegexParse(t *testing.T) {
	nodes := mustParse(t, NewRegex(), sampleSource)

	class, classIdx := findNode(t, nodes, NodeClass, "GameManager")
	if class.Parent != -1 {
		t.Errorf("class parent = %d, want -1", class.Parent)
	}
	if !class.HasModifier("public") {
		t.Errorf("class modifiers = %v, want public", class.Modifiers)
	}
	if class.Line != 6 || class.EndLine != 20 {
		t.Errorf("class lines = %d-%d, want 6-20", class.Line, class.EndLine)
	}

	base, _ := findNode(t, nodes, NodeBaseType, "MonoBehaviour")
	if base.Parent != classIdx {
		t.Errorf("base MonoBehaviour parent = %d, want %d", base.Parent, classIdx)
	}
	iface, _ := findNode(t, nodes, NodeBaseType, "IGameService")
	if iface.Parent != classIdx {
		t.Errorf("base IGameService parent = %d, want %d", iface.Parent, classIdx)
	}

	field, fieldIdx := findNode(t, nodes, NodeField, "enemies")
	if field.Type != "List<Enemy>" {
		t.Errorf("field type = %q, want List<Enemy>", field.Type)
	}
	if field.Parent != classIdx {
		t.Errorf("field parent = %d, want %d", field.Parent, classIdx)
	}
	enemyRef, _ := findNode(t, nodes, NodeTypeRef, "Enemy")
	if enemyRef.Parent != fieldIdx {
		t.Errorf("Enemy type ref parent = %d, want %d", enemyRef.Parent, fieldIdx)
	}

	prop, _ := findNode(t, nodes, NodeProperty, "Score")
	if prop.Type != "int" || prop.Parent != classIdx {
		t.Errorf("property = %+v, want int under class %d", prop, classIdx)
	}

	start, startIdx := findNode(t, nodes, NodeMethod, "StartGame")
	if start.Type != "void" || start.Params != "GameMode mode" {
		t.Errorf("method signature = %q %q, want void / GameMode mode", start.Type, start.Params)
	}
	if start.Parent != classIdx {
		t.Errorf("method parent = %d, want %d", start.Parent, classIdx)
	}
	modeRef, _ := findNode(t, nodes, NodeTypeRef, "GameMode")
	if modeRef.Parent != startIdx {
		t.Errorf("GameMode ref parent = %d, want %d", modeRef.Parent, startIdx)
	}

	count, _ := findNode(t, nodes, NodeMethod, "CountLiving")
	if count.Parent != classIdx || count.Line != 19 {
		t.Errorf("CountLiving parent/line = %d/%d, want %d/19", count.Parent, count.Line, classIdx)
	}

	_, ifaceIdx := findNode(t, nodes, NodeInterface, "IGameService")
	ifaceMethods := 0
	for _, n := range nodes {
		if n.Kind == NodeMethod && n.Parent == ifaceIdx {
			ifaceMethods++
			if n.Name != "StartGame" {
				t.Errorf("interface method = %q, want StartGame", n.Name)
			}
		}
	}
	if ifaceMethods != 1 {
		t.Errorf("interface methods = %d, want 1", ifaceMethods)
	}

	findNode(t, nodes, NodeEnum, "GameMode")

	for _, want := range []string{"EnemySpawner", "spawner.SpawnWave", "ScoreCalculator.Compute"} {
		inv, _ := findNode(t, nodes, NodeInvocation, want)
		if inv.Parent != startIdx {
			t.Errorf("invocation %q parent = %d, want %d", want, inv.Parent, startIdx)
		}
	}
	if got := countKind(nodes, NodeInvocation); got != 3 {
		t.Errorf("invocation count = %d, want 3", got)
	}
}

func TestRegexParse_StringsAndComments(t *testing.T) {
	src := `// class Commented { }
/* public void Fake() { */
public class Real
{
    private string label = "class NotReal {";
    private string path = @"C:\x\{y}";

    public void Run()
    {
        Log("calling Helper()");
        Helper();
    }
}
`
	nodes := mustParse(t, NewRegex(), src)

	if got := countKind(nodes, NodeClass); got != 1 {
		t.Fatalf("class count = %d, want 1", got)
	}
	class, classIdx := findNode(t, nodes, NodeClass, "Real")
	if class.EndLine != 13 {
		t.Errorf("class end line = %d, want 13", class.EndLine)
	}

	run, runIdx := findNode(t, nodes, NodeMethod, "Run")
	if run.Parent != classIdx {
		t.Errorf("Run parent = %d, want %d", run.Parent, classIdx)
	}
	for _, want := range []string{"Log", "Helper"} {
		inv, _ := findNode(t, nodes, NodeInvocation, want)
		if inv.Parent != runIdx {
			t.Errorf("invocation %q parent = %d, want %d", want, inv.Parent, runIdx)
		}
	}
	if got := countKind(nodes, NodeInvocation); got != 2 {
		t.Errorf("invocation count = %d, want 2", got)
	}
}

func TestRegexParse_FieldDeclarators(t *testing.T) {
	src := `public class Grid
{
    private int width, height;
    public static readonly Grid Empty = new Grid();
}
`
	nodes := mustParse(t, NewRegex(), src)

	_, classIdx := findNode(t, nodes, NodeClass, "Grid")
	for _, name := range []string{"width", "height"} {
		f, _ := findNode(t, nodes, NodeField, name)
		if f.Parent != classIdx || f.Type != "int" {
			t.Errorf("field %s = %+v, want int under class", name, f)
		}
	}
	empty, _ := findNode(t, nodes, NodeField, "Empty")
	if !empty.HasModifier("static") || !empty.HasModifier("readonly") {
		t.Errorf("Empty modifiers = %v", empty.Modifiers)
	}

	// The initializer's constructor call lands on the class, not a method.
	inv, _ := findNode(t, nodes, NodeInvocation, "Grid")
	if inv.Parent != classIdx {
		t.Errorf("initializer invocation parent = %d, want %d", inv.Parent, classIdx)
	}
}

func TestRegexParse_NestedGenerics(t *testing.T) {
	src := `public class Board
{
    public Dictionary<string, List<Piece>> Snapshot(Dictionary<string, int> counts)
    {
        return Clone(counts);
    }
}
`
	nodes := mustParse(t, NewRegex(), src)

	m, mIdx := findNode(t, nodes, NodeMethod, "Snapshot")
	if m.Type != "Dictionary<string, List<Piece>>" {
		t.Errorf("return type = %q", m.Type)
	}
	if m.Params != "Dictionary<T> counts" {
		t.Errorf("params = %q, want Dictionary<T> counts", m.Params)
	}
	ref, _ := findNode(t, nodes, NodeTypeRef, "Dictionary")
	if ref.Parent != mIdx {
		t.Errorf("Dictionary ref parent = %d, want %d", ref.Parent, mIdx)
	}
	findNode(t, nodes, NodeInvocation, "Clone")
}

func TestRegexParse_NestedType(t *testing.T) {
	src := `public class Outer
{
    public class Inner
    {
        public void Ping() { }
    }
}
`
	nodes := mustParse(t, NewRegex(), src)

	_, outerIdx := findNode(t, nodes, NodeClass, "Outer")
	inner, innerIdx := findNode(t, nodes, NodeClass, "Inner")
	if inner.Parent != outerIdx {
		t.Errorf("Inner parent = %d, want %d", inner.Parent, outerIdx)
	}
	ping, _ := findNode(t, nodes, NodeMethod, "Ping")
	if ping.Parent != innerIdx {
		t.Errorf("Ping parent = %d, want %d", ping.Parent, innerIdx)
	}
}

func TestRegexParse_NewWithGenerics(t *testing.T) {
	src := `public class Pool
{
    private object items = new Dictionary<string, Buffer>();
}
`
	nodes := mustParse(t, NewRegex(), src)

	inv, _ := findNode(t, nodes, NodeInvocation, "Dictionary")
	if _, classIdx := findNode(t, nodes, NodeClass, "Pool"); inv.Parent != classIdx {
		t.Errorf("constructor parent = %d, want %d", inv.Parent, classIdx)
	}
	findNode(t, nodes, NodeTypeRef, "Buffer")
}

func TestRegexParse_KeywordsNotCalls(t *testing.T) {
	src := `public class Loop
{
    public void Tick(bool on)
    {
        if (on) {
            for (int i = 0; i < 3; i++) {
                Step(i);
            }
        }
        while (on) { break; }
    }
}
`
	nodes := mustParse(t, NewRegex(), src)

	if got := countKind(nodes, NodeInvocation); got != 1 {
		t.Fatalf("invocation count = %d, want only Step", got)
	}
	findNode(t, nodes, NodeInvocation, "Step")
}

func TestRegexParse_RecordPrimaryConstructor(t *testing.T) {
	src := `public record Point(int X, int Y) : IShape;
`
	nodes := mustParse(t, NewRegex(), src)

	point, pointIdx := findNode(t, nodes, NodeClass, "Point")
	if point.Line != 1 {
		t.Errorf("record line = %d, want 1", point.Line)
	}
	base, _ := findNode(t, nodes, NodeBaseType, "IShape")
	if base.Parent != pointIdx {
		t.Errorf("base parent = %d, want %d", base.Parent, pointIdx)
	}
	if got := countKind(nodes, NodeMethod); got != 0 {
		t.Errorf("method count = %d, want 0", got)
	}
	if got := countKind(nodes, NodeInvocation); got != 0 {
		t.Errorf("invocation count = %d, want 0", got)
	}
}

func TestRegexParse_Empty(t *testing.T) {
	nodes := mustParse(t, NewRegex(), "")
	if len(nodes) != 0 {
		t.Fatalf("nodes = %v, want none", nodes)
	}
}
