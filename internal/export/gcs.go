package export

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
)

// uploadTimeout bounds one artifact upload.
const uploadTimeout = 2 * time.Minute

// UploadToGCS writes an export artifact to gs://bucket/object. It
// assumes Application Default Credentials are configured.
func UploadToGCS(ctx context.Context, bucket, object string, data []byte) (string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("upload export: storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = "text/csv"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload export: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload export: finalize: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", bucket, object), nil
}
