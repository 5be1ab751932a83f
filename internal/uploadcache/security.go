package uploadcache

import (
	"fmt"
	"os"
)

// checkBlobFile refuses to touch a cache entry that has been replaced with a
// symlink or any other non-regular file, so a tampered cache directory cannot
// redirect reads or writes elsewhere.
func checkBlobFile(path string, missingOK bool) error {
	info, err := os.Lstat(path)
	if err != nil {
		if missingOK && os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("cache entry is a symlink: %s", path)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("cache entry is not a regular file: %s", path)
	}
	return nil
}
