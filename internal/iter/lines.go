// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package iter

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/TaffyWrinkle/jacdac/internal/idl"
	"github.com/TaffyWrinkle/jacdac/internal/optional"
)

const maxLineLength = 1 << 20

// NewLineFileBody converts a FileBody into an iterator of lines. Both \n and
// \r\n terminate a line.
func NewLineFileBody(b idl.FileBody) idl.Iterator[idl.Line] {
	return NewLineFileBodyCtx(context.Background(), b)
}

// NewLineFileBodyCtx is the same as NewLineFileBody but uses the given
// context for all read operations for cancellation or other purposes.
func NewLineFileBodyCtx(ctx context.Context, b idl.FileBody) idl.Iterator[idl.Line] {
	return newFileBody(ctx, b)
}

type fileBody struct {
	readCloser io.ReadCloser
	scanner    *bufio.Scanner
	line       int32
}

func newFileBody(ctx context.Context, r idl.FileBody) *fileBody {
	rc := &fileBodyIO{
		ctx:  ctx,
		body: r,
	}
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	scanner.Split(bufio.ScanLines)
	return &fileBody{
		readCloser: rc,
		scanner:    scanner,
	}
}

func (f *fileBody) Next(ctx context.Context) optional.Optional[idl.Line] {
	ok := f.scanner.Scan()
	if !ok {
		return optional.None[idl.Line]()
	}
	f.line = f.line + 1
	return optional.Some(idl.Line{Number: f.line, Text: f.scanner.Text()})
}

func (f *fileBody) Close(context.Context) error {
	_ = f.readCloser.Close()
	err := f.scanner.Err()
	if err != nil {
		return err
	}
	return nil
}

type fileBodyIO struct {
	ctx  context.Context
	body idl.FileBody
}

func (self *fileBodyIO) Read(p []byte) (int, error) {
	b, err := self.body.Read(self.ctx, int32(len(p)))
	if err != nil && !errors.Is(err, io.EOF) {
		return len(b), err
	}
	copy(p, b)
	if errors.Is(err, io.EOF) {
		return len(b), io.EOF
	}
	return len(b), nil
}

func (self *fileBodyIO) Close() error {
	return self.body.Close(self.ctx)
}
