package media

import "path"

const (
	imagesDir       = "images"
	thumbnailsDir   = "thumbnails"
	thumbnailPrefix = "thumb_"
)

// PathPair is the primary/thumbnail key pair uploaded and deleted together.
type PathPair struct {
	StoragePath   string
	ThumbnailPath string
}

// ImagePaths returns {scope}/images/{name} and {scope}/thumbnails/thumb_{name}.
func ImagePaths(scope, name string) PathPair {
	return PathPair{
		StoragePath:   path.Join(scope, imagesDir, name),
		ThumbnailPath: path.Join(scope, thumbnailsDir, thumbnailPrefix+name),
	}
}

// ThumbnailPathFor recomputes the thumbnail key from a primary key. A primary
// under an images directory maps to the sibling thumbnails directory, any
// other primary gets a thumbnails directory next to it.
func ThumbnailPathFor(storagePath string) string {
	dir, name := path.Split(storagePath)
	dir = path.Clean(dir)

	if path.Base(dir) == imagesDir {
		dir = path.Dir(dir)
	}
	return path.Join(dir, thumbnailsDir, thumbnailPrefix+name)
}
