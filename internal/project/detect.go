// Package project detects what kind of C# project a directory holds, so
// init can pick a fitting preset without being told.
package project

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Kind labels the detected project flavor.
type Kind string

const (
	KindUnity   Kind = "unity"
	KindDotnet  Kind = "dotnet"
	KindGeneric Kind = "generic"
)

// Info is the detection outcome.
type Info struct {
	Kind Kind

	// SourceRoot is the directory the preset should scan, relative to
	// the project root.
	SourceRoot string

	// UnityVersion is the editor version from ProjectVersion.txt; empty
	// for non-Unity projects or when the file is unreadable.
	UnityVersion string
}

// Detect probes root for project markers. Unity outranks a stray
// .csproj because Unity generates solution files of its own.
func Detect(root string) Info {
	if isDir(filepath.Join(root, "Assets")) && isDir(filepath.Join(root, "ProjectSettings")) {
		info := Info{Kind: KindUnity, SourceRoot: "Assets"}
		if isDir(filepath.Join(root, "Assets", "Scripts")) {
			info.SourceRoot = filepath.Join("Assets", "Scripts")
		}
		info.UnityVersion = readUnityVersion(root)
		return info
	}

	// Solution and project files commonly sit one directory down
	// (src/Foo/Foo.csproj layouts are deeper and out of scope).
	for _, pattern := range []string{"*.sln", "*.csproj", filepath.Join("*", "*.sln"), filepath.Join("*", "*.csproj")} {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err == nil && len(matches) > 0 {
			return Info{Kind: KindDotnet, SourceRoot: "."}
		}
	}

	return Info{Kind: KindGeneric, SourceRoot: "."}
}

// projectVersion mirrors the fields of Unity's ProjectVersion.txt, which
// is plain YAML despite the extension.
type projectVersion struct {
	EditorVersion string `yaml:"m_EditorVersion"`
}

func readUnityVersion(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "ProjectSettings", "ProjectVersion.txt"))
	if err != nil {
		return ""
	}
	var pv projectVersion
	if err := yaml.Unmarshal(data, &pv); err != nil {
		return ""
	}
	return pv.EditorVersion
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// DisplayName returns a human-readable name for the kind.
func DisplayName(kind Kind) string {
	switch kind {
	case KindUnity:
		return "Unity"
	case KindDotnet:
		return ".NET"
	default:
		return "Generic C#"
	}
}
