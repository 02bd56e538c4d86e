// Package gitcmd wraps the handful of git CLI operations carve needs:
// cloning the source and mirror repositories, reading the source revision,
// and staging/committing/pushing the mirror.
package gitcmd

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// CloneOpts configures a clone. A nil Depth means full history.
type CloneOpts struct {
	Depth *int
}

// Clone clones url into dest.
func Clone(url, dest string, opts CloneOpts) error {
	args := []string{"clone"}
	if opts.Depth != nil && *opts.Depth > 0 {
		args = append(args, "--depth", fmt.Sprintf("%d", *opts.Depth))
	}
	args = append(args, url, dest)
	if err := run(".", args...); err != nil {
		return fmt.Errorf("cloning %s: %w", url, err)
	}
	return nil
}

// HeadCommit returns the short SHA of HEAD in dir.
func HeadCommit(dir string) (string, error) {
	out, err := output(dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// IsDirty reports whether the working tree in dir has staged or
// unstaged changes.
func IsDirty(dir string) (bool, error) {
	out, err := output(dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// AddAll stages every change under dir, deletions included.
func AddAll(dir string) error {
	return run(dir, "add", "-A")
}

// Commit creates a commit with the given message. If the repo has no
// commit identity configured it sets a repo-local fallback first, so
// the publish step works in bare CI environments.
func Commit(dir, message string) error {
	if err := ensureIdentity(dir); err != nil {
		return fmt.Errorf("setting commit identity: %w", err)
	}
	return run(dir, "commit", "-m", message)
}

// Push pushes the current branch to its upstream.
func Push(dir string) error {
	return run(dir, "push")
}

// Installed reports whether git is available on PATH.
func Installed() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

func ensureIdentity(dir string) error {
	if _, err := output(dir, "config", "user.name"); err != nil {
		if err := run(dir, "config", "user.name", "carve"); err != nil {
			return err
		}
	}
	if _, err := output(dir, "config", "user.email"); err != nil {
		if err := run(dir, "config", "user.email", "carve@localhost"); err != nil {
			return err
		}
	}
	return nil
}

func run(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf(
			"git %s: %w: %s",
			strings.Join(args, " "), err,
			strings.TrimSpace(stderr.String()),
		)
	}
	return nil
}

func output(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf(
			"git %s: %w: %s",
			strings.Join(args, " "), err,
			strings.TrimSpace(stderr.String()),
		)
	}
	return stdout.String(), nil
}
