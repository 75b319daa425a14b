package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/gophsecrets/internal/common"
	"github.com/dmitrijs2005/gophsecrets/internal/filex"
)

// LocalSource reads assets from a directory on disk.
type LocalSource struct {
	Dir string
}

func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{Dir: dir}
}

func (s *LocalSource) Open(_ context.Context, name string) (*Object, error) {
	p, err := filex.SafeJoin(s.Dir, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorNotFound, err)
	}

	fi, err := filex.StatRegular(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, filex.ErrNotRegular) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("stat asset: %w", err)
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}

	return &Object{
		Body:        f,
		Size:        fi.Size(),
		ContentType: contentTypeFor(name),
		ModTime:     fi.ModTime(),
	}, nil
}
