package exc

const (
	CodeUnknownFatal                  = "J0000"
	CodeFileNotFound                  = "J0001"
	CodeUnsuportedFileSystemOperation = "J0002"
	CodePermissionDenied              = "J0003"
	CodeUnsupportedFileFormat         = "J0004"
	CodeInvalidNumber                 = "J0006"
)

// Diagnostic kinds raised while compiling a service specification document.
const (
	CodeGrammar    = "J0100"
	CodeType       = "J0101"
	CodeUnit       = "J0102"
	CodeIdentifier = "J0103"
	CodeStructural = "J0104"
	CodeReference  = "J0105"
	CodeWarning    = "J0200"
)

// CodeSchema marks a generated schema that failed validation.
const (
	CodeSchema = "J0300"
)

const (
	CodeEOF = "_EOF_"
)

var (
	defaultNonFatal = map[string]bool{
		CodeWarning: true,
	}
)

// IsWarning reports whether the code is an advisory rather than a defect.
func IsWarning(code string) bool {
	return code == CodeWarning
}
