package notify

import (
	"strings"
	"testing"
)

func TestAppleScriptEscaping(t *testing.T) {
	got := appleScript(`Map "done"`, `2 files, 0 "errors"`)

	if !strings.Contains(got, `with title "Map \"done\""`) {
		t.Errorf("title not escaped: %s", got)
	}
	if !strings.Contains(got, `display notification "2 files, 0 \"errors\""`) {
		t.Errorf("message not escaped: %s", got)
	}
}

func TestToastScriptEscaping(t *testing.T) {
	got := toastScript("it's done", `say "hi"`)

	if !strings.Contains(got, "it''s done") {
		t.Errorf("single quotes not doubled: %s", got)
	}
	if !strings.Contains(got, "say `\"hi`\"") {
		t.Errorf("double quotes not backticked: %s", got)
	}
	if !strings.Contains(got, `CreateToastNotifier("RepoMap")`) {
		t.Errorf("app name missing: %s", got)
	}
}

func TestRunMissingTool(t *testing.T) {
	if run("repomap-no-such-binary-for-tests") {
		t.Error("run reported success for a nonexistent binary")
	}
}
