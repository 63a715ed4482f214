package fs

import (
	"context"
	iofs "io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/TaffyWrinkle/jacdac/internal/exc"
	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"_base.md":              {Data: []byte("# Base\n")},
		"button.md":             {Data: []byte("# Button\n")},
		".hidden.md":            {Data: []byte("# Hidden\n")},
		"notes.txt":             {Data: []byte("not a spec")},
		"compiled.json":         {Data: []byte("{}")},
		"drafts/led.md":         {Data: []byte("# LED\n")},
		"generated/c/button.c":  {Data: []byte("")},
		"empty/.keep":           {Data: []byte("")},
		"generated/spec.json":   {Data: []byte("[]")},
		"services/humidity.md":  {Data: []byte("# Humidity\n")},
		"services/old/motor.md": {Data: []byte("# Motor\n")},
	}
}

func newTestFS(t *testing.T, options ...FileSystemLocalOption) idl.FileSystem {
	mfs := testFS()
	options = append([]FileSystemLocalOption{WithOptionFSFactory(func(string) iofs.FS { return mfs })}, options...)
	f, err := NewFileSystemLocal("/specs", options...)
	require.NoError(t, err)
	return f
}

func paths(ctx context.Context, files []idl.File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path(ctx))
	}
	return out
}

func TestOpenDirectory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	files, err := newTestFS(t).Open(ctx, "/")
	require.NoError(t, err)
	require.Equal(t, []string{"/_base.md", "/button.md", "/compiled.json"}, paths(ctx, files))
	require.Equal(t, idl.FileKindServiceSpec, files[0].Kind(ctx))
	require.Equal(t, idl.FileKindServiceSpecJSON, files[2].Kind(ctx))

	content, err := ReadAll(ctx, files[1])
	require.NoError(t, err)
	require.Equal(t, "# Button\n", content)
}

func TestOpenFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	files, err := newTestFS(t).Open(ctx, "drafts/led.md")
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "/drafts/led.md", files[0].Path(ctx))
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newTestFS(t)

	_, err := f.Open(ctx, "missing.md")
	var e exc.Exception
	require.ErrorAs(t, err, &e)
	require.Equal(t, exc.CodeFileNotFound, e.Code())

	_, err = f.Open(ctx, "empty")
	require.ErrorAs(t, err, &e)
	require.Equal(t, exc.CodeFileNotFound, e.Code())
}

func TestGlobFilter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	filter, err := NewGlobFilter([]string{"*.md", "services/**/*.md"}, []string{"**/old/**"})
	require.NoError(t, err)

	require.True(t, filter(ctx, "button.md"))
	require.True(t, filter(ctx, "services/humidity.md"))
	require.False(t, filter(ctx, "services/old/motor.md"))
	require.False(t, filter(ctx, "compiled.json"))
	require.False(t, filter(ctx, ".hidden.md"))

	files, err := newTestFS(t, WithOptionFileFilter(filter)).Open(ctx, "services")
	require.NoError(t, err)
	require.Equal(t, []string{"/services/humidity.md"}, paths(ctx, files))

	_, err = NewGlobFilter([]string{"[unterminated"}, nil)
	require.Error(t, err)
}

func TestMultiFileSystem(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	multi := FileSystemMulti{newTestFS(t)}
	_, err := multi.Open(ctx, "nowhere.md")
	require.Error(t, err)
	require.Error(t, multi.Write(ctx, "x.md", ""))

	files, err := multi.Open(ctx, "button.md")
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestWriteLocal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	f, err := NewFileSystemLocal(root)
	require.NoError(t, err)

	require.NoError(t, f.Write(ctx, "/out/button.md", "old"))
	require.NoError(t, f.Write(ctx, "out/button.md", "new"))
	files, err := f.Open(ctx, "/out")
	require.NoError(t, err)
	require.Equal(t, []string{"/out/button.md"}, paths(ctx, files))
	content, err := ReadAll(ctx, files[0])
	require.NoError(t, err)
	require.Equal(t, "new", content)

	entries, err := os.ReadDir(filepath.Join(root, "out"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
