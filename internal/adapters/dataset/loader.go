// Package dataset loads subject -> metric -> samples mappings from files.
package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/vitalrace/internal/domain/model"
)

// Load reads the dataset at path, choosing the decoder by file extension.
func Load(ctx context.Context, path string) (model.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		defer func() { _ = f.Close() }()
		return DecodeJSON(f)
	case ".xlsx":
		return LoadExcel(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
