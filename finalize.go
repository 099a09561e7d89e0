package reportpdf

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// artifactPerm is applied after the atomic rename; the temp file is created 0600.
const artifactPerm = 0o644

// finalize writes data to path through a temp file and rename, so a partial
// PDF is never visible at path.
func finalize(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrFinalize, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %w", ErrFinalize, err)
	}
	if err := os.Chmod(path, artifactPerm); err != nil {
		return fmt.Errorf("%w: %w", ErrFinalize, err)
	}
	return nil
}
