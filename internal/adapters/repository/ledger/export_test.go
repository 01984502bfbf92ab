package ledger

// SetRename replaces the rename used by FileStore and returns a func that
// restores it.
func SetRename(f func(oldpath, newpath string) error) func() {
	prev := rename
	rename = f
	return func() { rename = prev }
}
