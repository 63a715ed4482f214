package idl

import (
	"context"
	"fmt"

	"github.com/TaffyWrinkle/jacdac/internal/optional"
)

type Closer interface {
	Close(ctx context.Context) error
}

type Iterator[T any] interface {
	Next(ctx context.Context) optional.Optional[T]
	Closer
}

type Lookahead[T any] interface {
	Iterator[T]
	Lookahead(ctx context.Context, n uint8) optional.Optional[T]
}

type Filter[T any] interface {
	Keep(ctx context.Context, v T) bool
}

type Reader interface {
	Read(ctx context.Context, size int32) ([]byte, error)
}

type FileBody interface {
	Reader
	Closer
}

type FileKind uint32

const (
	FileKindNone FileKind = iota
	// FileKindServiceSpec is a markdown document with embedded definitions.
	FileKindServiceSpec
	// FileKindServiceSpecJSON is a previously compiled ServiceSpec.
	FileKindServiceSpecJSON
)

func (k FileKind) String() string {
	switch k {
	case FileKindNone:
		return "none"
	case FileKindServiceSpec:
		return "service-spec"
	case FileKindServiceSpecJSON:
		return "service-spec-json"
	default:
		return fmt.Sprintf("unkown-%d", k)
	}
}

type File interface {
	Path(ctx context.Context) string
	Kind(ctx context.Context) FileKind
	Body(ctx context.Context) (FileBody, error)
}

type FileSystem interface {
	Open(ctx context.Context, uri string) ([]File, error)
	Write(ctx context.Context, uri string, content string) error
}

type Compiler interface {
	Compile(ctx context.Context, req *CompileRequest) (*CompileResponse, error)
}

type CompileRequest struct {
	// Files are compiled and returned in the response.
	Files []string
	// Includes are compiled so that Files can extend them but are not
	// returned as targets.
	Includes []string
}

type CompileResponse struct {
	Corpus *Corpus
}

// Corpus is every document compiled by one request, keyed by document key.
type Corpus struct {
	// Specs holds the target documents in key order.
	Specs []*ServiceSpec
	// Included holds documents loaded only to satisfy extends.
	Included []*ServiceSpec
}

// Location is a 1-based line within a document.
type Location struct {
	Line int32
}

// ClassOwner names the document that claimed a class identifier.
type ClassOwner struct {
	Key  string
	Name string
	Line int32
}

// Includes gives a document compiler access to previously compiled documents.
// The caller guarantees that a document's bases are complete before the
// document itself is compiled.
type Includes interface {
	ResolveBase(key string) optional.Optional[*ServiceSpec]
	LookupClassIdentifier(id uint32) optional.Optional[ClassOwner]
	RecordClassIdentifier(id uint32, owner ClassOwner)
}

// Line is one source line with its 1-based number.
type Line struct {
	Number int32
	Text   string
}
