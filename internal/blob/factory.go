package blob

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Open constructs a blob store from the process environment.
//
//	PROCURECORE_BLOB_DRIVER=fs|s3|memory (default fs)
//	PROCURECORE_BLOB_FS_ROOT=<dir> (fs driver, default ./blobdata)
//
// S3 settings are documented on OpenS3FromEnv.
func Open(ctx context.Context) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("PROCURECORE_BLOB_DRIVER")))
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("PROCURECORE_BLOB_FS_ROOT"))
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}
