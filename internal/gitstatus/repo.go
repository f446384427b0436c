package gitstatus

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var headPattern = regexp.MustCompile(`ref: refs/heads/(.*)`)

// FindRoot walks up from dir to the nearest directory containing .git.
func FindRoot(dir string) (string, bool) {
	dir = filepath.Clean(dir)

	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}

		dir = parent
	}
}

// Branch reads the checked-out branch from root/.git/HEAD. A detached HEAD
// yields the abbreviated commit id; an unreadable HEAD yields "".
func Branch(root string) string {
	f, err := os.Open(filepath.Join(root, ".git", "HEAD"))
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if m := headPattern.FindStringSubmatch(line); m != nil {
			return m[1]
		}

		if len(line) >= 7 && !strings.Contains(line, " ") {
			return line[:7]
		}
	}

	return ""
}
