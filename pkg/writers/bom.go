package writers

import (
	"bytes"
	"fmt"
	"os"

	"github.com/TFMV/tabmatch/pkg/core"
)

// BOM is the UTF-8 byte-order mark spreadsheet tools use to detect the encoding.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// EnsureBOM makes the file at path start with exactly one BOM. Files that
// already start with it are left untouched.
func EnsureBOM(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return &core.IOError{Op: "read", Path: path, Err: err}
	}
	if bytes.HasPrefix(content, BOM) {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return &core.IOError{Op: "stat", Path: path, Err: err}
	}

	withBOM := make([]byte, 0, len(BOM)+len(content))
	withBOM = append(withBOM, BOM...)
	withBOM = append(withBOM, content...)
	if err := os.WriteFile(path, withBOM, info.Mode().Perm()); err != nil {
		return &core.IOError{Op: "write", Path: path, Err: fmt.Errorf("prepending BOM: %w", err)}
	}
	return nil
}
