package source

// Test-only exports.
type (
	ObjectGetter = objectGetter
	Filesystem   = filesystem
	TempFile     = tempFile
)

var (
	WithS3Client   = withS3Client
	WithFilesystem = withFilesystem
)
