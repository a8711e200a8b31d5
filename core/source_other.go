//go:build !unix

package core

func mapFile(path string) (View, error) {
	return FileSource{}.Open(path)
}
