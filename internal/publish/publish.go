// Package publish copies a finished document into object storage.
//
// Buckets are addressed by gocloud.dev URL (s3://, gs://, file://, mem://);
// the caller registers the drivers it wants via blank imports.
package publish

import (
	"context"
	"fmt"
	"io"
	"os"

	"gocloud.dev/blob"
)

// Upload copies the local file at path into the bucket at bucketURL under
// key. The local file is left in place.
func Upload(ctx context.Context, bucketURL, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("publish: open %s: %w", path, err)
	}
	defer f.Close()

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return fmt.Errorf("publish: open bucket %s: %w", bucketURL, err)
	}
	defer bucket.Close()

	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return fmt.Errorf("publish: create writer for %s: %w", key, err)
	}

	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("publish: write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("publish: finalize %s: %w", key, err)
	}
	return nil
}
