//go:build !unix

package launcher

import (
	"context"
	"fmt"
	"os"
)

// Start is unsupported without POSIX process groups.
func (l *Launcher) Start(context.Context, Request) (*Process, error) {
	return nil, fmt.Errorf("%w: job control requires a unix system", ErrSpawn)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}
