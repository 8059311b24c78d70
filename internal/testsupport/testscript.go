package testsupport

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

var (
	buildOnce     sync.Once
	taskownerPath string
	buildErr      error
)

// BuildTaskowner builds the taskowner binary once and returns its path.
func BuildTaskowner(t testing.TB) string {
	t.Helper()

	buildOnce.Do(func() {
		moduleRoot, err := findModuleRoot()
		if err != nil {
			buildErr = err
			return
		}

		binDir, err := os.MkdirTemp("", "taskowner-bin-")
		if err != nil {
			buildErr = err
			return
		}

		taskownerPath = filepath.Join(binDir, "taskowner")
		cmd := exec.Command("go", "build", "-o", taskownerPath, "./cmd/taskowner")
		cmd.Dir = moduleRoot
		output, err := cmd.CombinedOutput()
		if err != nil {
			buildErr = fmt.Errorf("build taskowner: %w: %s", err, strings.TrimSpace(string(output)))
		}
	})

	if buildErr != nil {
		t.Fatalf("%v", buildErr)
	}

	return taskownerPath
}

// SetupScriptEnv points scripts at the binary and at a SQLite database
// seeded with DefaultFixture in the script's work dir.
func SetupScriptEnv(t testing.TB, env *testscript.Env) error {
	t.Helper()

	env.Setenv("TASKOWNER", BuildTaskowner(t))

	dbPath := filepath.Join(env.WorkDir, "taskowner.db")
	if err := WriteFixtureDB(dbPath, DefaultFixture); err != nil {
		return err
	}
	env.Setenv("DB_DRIVER", "sqlite")
	env.Setenv("DB_PATH", dbPath)
	env.Setenv("NO_COLOR", "1")

	homeDir := filepath.Join(env.WorkDir, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)
	return nil
}

// CmdSeedDB creates a SQLite database with the bundled schema and runs
// each SQL file against it.
func CmdSeedDB(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("seeddb does not support negation")
	}
	if len(args) < 1 {
		ts.Fatalf("usage: seeddb DB [SQLFILE...]")
	}

	path := ts.MkAbs(args[0])
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		ts.Fatalf("remove %s: %v", path, err)
	}
	seeds := make([]string, 0, len(args)-1)
	for _, file := range args[1:] {
		seeds = append(seeds, ts.ReadFile(file))
	}
	if err := WriteFixtureDB(path, seeds...); err != nil {
		ts.Fatalf("seed %s: %v", path, err)
	}
}

func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find module root (go.mod)")
		}
		dir = parent
	}
}
