// filesystem handling
package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pynezz/threatdash/internal/util"
)

// FileExists checks if a file exists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}

// GetFile opens filename for reading, failing early when it does not exist.
func GetFile(filename string) (*os.File, error) {
	if !FileExists(filename) {
		return nil, util.Errorf("file %s does not exist", filename)
	}
	return os.Open(filename)
}

// ReadFile returns the whole content of an existing file.
func ReadFile(filename string) ([]byte, error) {
	file, err := GetFile(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", filename)
	}

	return os.ReadFile(file.Name())
}

// WriteFileAtomic writes data to a temp file next to filename and renames it into place.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filename)
}
