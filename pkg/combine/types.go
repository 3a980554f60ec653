// File: pkg/combine/types.go
package combine

// Document framing. A reader finds one record per file between Divider lines and stops
// at Terminator.
const (
	Divider    = "----"
	Terminator = "--END--"

	BinarySuffix = " (Binary file, not included in content)"
	BinaryNotice = "This is a binary file and its contents are not included."

	DefaultPreamble = "The following text is a Git repository with code. The structure of the text are sections that begin with ----, followed by a single line containing the file path and file name, followed by a variable amount of lines containing the file contents. The text representing the Git repository ends when the symbols --END-- are encountered. Any further text beyond --END-- are meant to be interpreted as instructions using the aforementioned Git repository as context."
)

// Kind classifies a file as text or binary.
type Kind int

const (
	Text Kind = iota
	Binary
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Binary:
		return "binary"
	default:
		return "unknown"
	}
}

// FileRecord describes one included file.
type FileRecord struct {
	Path    string // Path relative to the scan root, native separators.
	Kind    Kind   // Text or Binary.
	Content string // Decoded contents; empty for Binary.
	Charset string // Encoding the contents were decoded from; empty for Binary.
}

// Format renders the record as it appears in the output document.
func (r FileRecord) Format() string {
	if r.Kind == Binary {
		return Divider + "\n" + r.Path + BinarySuffix + "\n" + BinaryNotice + "\n"
	}
	return Divider + "\n" + r.Path + "\n" + r.Content + "\n"
}
