// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CheckerFunc adapts a function into a named Checker.
type CheckerFunc struct {
	CheckName string
	Fn        func(ctx context.Context) CheckResult
}

func (c CheckerFunc) Name() string                          { return c.CheckName }
func (c CheckerFunc) Check(ctx context.Context) CheckResult { return c.Fn(ctx) }

// LoopChecker reports a background loop as unhealthy once its last
// iteration is older than MaxAge, and before it has run at all.
type LoopChecker struct {
	LoopName string
	LastTick func() time.Time
	MaxAge   time.Duration
	Now      func() time.Time
}

func (c LoopChecker) Name() string { return c.LoopName }

func (c LoopChecker) Check(context.Context) CheckResult {
	last := c.LastTick()
	if last.IsZero() {
		return CheckResult{Status: StatusUnhealthy, Message: "loop has not started"}
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	if age := now().Sub(last); age > c.MaxAge {
		return CheckResult{Status: StatusUnhealthy, Message: fmt.Sprintf("last iteration %s ago", age.Round(time.Millisecond))}
	}
	return CheckResult{Status: StatusHealthy}
}

// WritableDirChecker verifies that archived shows can still be written.
// A failing directory degrades the daemon without making it unready.
type WritableDirChecker struct {
	Path string
}

func (c WritableDirChecker) Name() string { return "archive_dir" }

func (c WritableDirChecker) Check(context.Context) CheckResult {
	if err := CheckWritableDir(c.Path); err != nil {
		return CheckResult{Status: StatusDegraded, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// CheckWritableDir returns an error unless path is an existing, writable directory.
func CheckWritableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)
	return nil
}
