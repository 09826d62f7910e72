// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package xcodeenv

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// detachedEnv marks a re-executed background process so it does not
// detach again.
const detachedEnv = "SYMKEEP_DETACHED"

// Detach re-executes the current command in the background when
// launched from an Xcode build phase, so the build does not block on
// the upload. The background process runs in its own session with
// output redirected to logPath.
//
// Returns detached=true in the launching process, which should print a
// note and exit successfully. Returns detached=false when the process
// is already the background copy, is not running under Xcode, or
// detaching is disabled by the caller.
func Detach() (detached bool, logPath string, err error) {
	if os.Getenv(detachedEnv) != "" {
		return false, "", nil
	}
	if !IsRunFromXcode() {
		return false, "", nil
	}

	executable, err := os.Executable()
	if err != nil {
		return false, "", fmt.Errorf("resolving executable path: %w", err)
	}

	logPath = filepath.Join(os.TempDir(), fmt.Sprintf("symkeep-upload-%d.log", os.Getpid()))
	logFile, err := os.Create(logPath)
	if err != nil {
		return false, "", fmt.Errorf("creating detach log %s: %w", logPath, err)
	}
	defer logFile.Close()

	command := exec.Command(executable, os.Args[1:]...)
	command.Env = append(os.Environ(), detachedEnv+"=1")
	command.Stdout = logFile
	command.Stderr = logFile
	command.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := command.Start(); err != nil {
		return false, "", fmt.Errorf("starting background upload: %w", err)
	}
	// The child is intentionally not reaped; it outlives this process.
	return true, logPath, nil
}
