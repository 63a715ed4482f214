// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package fs

import (
	"context"
	"errors"
	"io"

	"github.com/TaffyWrinkle/jacdac/internal/exc"
	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

func bodyFromIO(v io.ReadCloser) idl.FileBody {
	return &ioFileBody{rc: v}
}

// ioFileBody returns slices of an internal buffer; callers must consume a
// chunk before the next Read.
type ioFileBody struct {
	rc io.ReadCloser
	b  []byte
}

func (self *ioFileBody) Read(ctx context.Context, size int32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, exc.WrapUnknown(exc.Location{}, err)
	}
	if len(self.b) < int(size) {
		self.b = make([]byte, size)
	}
	count, err := self.rc.Read(self.b[:size])
	switch {
	case errors.Is(err, io.EOF):
		return self.b[:count], exc.Wrap(exc.Location{}, exc.CodeEOF, err)
	case err != nil:
		return nil, exc.WrapUnknown(exc.Location{}, err)
	default:
		return self.b[:count], nil
	}
}

func (self *ioFileBody) Close(ctx context.Context) error {
	return self.rc.Close()
}
