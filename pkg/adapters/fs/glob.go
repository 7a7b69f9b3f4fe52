package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mdxdb/mdxdb/pkg/core"
)

// Glob returns every document under the base directory whose slash path
// matches pattern, e.g. "blog/**" or "*/drafts/*.mdx". The id of each item is
// its slash path relative to the base, without the extension.
func (b *Backend) Glob(ctx context.Context, pattern string) ([]core.Data, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", doublestar.ErrBadPattern, pattern)
	}

	matches, err := doublestar.Glob(os.DirFS(b.config.BasePath), pattern, doublestar.WithFilesOnly())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []core.Data{}, nil
		}
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	slices.Sort(matches)

	items := make([]core.Data, 0, len(matches))
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, ok := b.idFromName(match)
		if !ok || path.Base(match) == b.config.Extension {
			continue
		}

		data, err := b.readFile(b.filePath(core.NewPath(id)))
		if err != nil {
			var fe *core.FormatError
			if errors.As(err, &fe) && b.config.ListPolicy == ListSkipInvalid {
				b.config.Logger.Warn("skipping invalid document", "file", match, "error", err)
				continue
			}
			return nil, err
		}
		if data == nil {
			continue
		}
		items = append(items, data.WithID(id))
	}
	return items, nil
}
