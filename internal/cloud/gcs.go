// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud contains data structures and utilities for interacting with Google Cloud services.
// This file uploads exported note documents to Google Cloud Storage and
// hands back a time-limited signed URL for them.
//
// Structs:
//   - GCSObject: The bucket and object name of an uploaded file.
//   - NotesExporter: Uploads local files and signs GET URLs.
package cloud

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
)

// DefaultSignedURLExpiry is how long an exported document link stays valid.
const DefaultSignedURLExpiry = 15 * time.Minute

// GCSObject identifies one object in a bucket.
type GCSObject struct {
	Bucket   string // The name of the GCS bucket.
	Name     string // The name of the object.
	MIMEType string // The MIME type of the object (e.g., "application/pdf").
}

// URI returns the gs:// form of the object.
func (o GCSObject) URI() string {
	return fmt.Sprintf("gs://%s/%s", o.Bucket, o.Name)
}

// NotesExporter copies rendered documents to a bucket.
type NotesExporter struct {
	StorageClient *storage.Client
	IAMClient     *credentials.IamCredentialsClient // Optional; without it URLs are signed with the default credentials.
	SignerEmail   string
	Bucket        string
	Prefix        string        // Object name prefix, e.g. "notes/".
	Expiry        time.Duration // Signed URL lifetime; DefaultSignedURLExpiry when zero.
}

// NewNotesExporter returns an exporter for bucket, or nil when no bucket or
// storage client is configured.
func NewNotesExporter(clients *ServiceClients, config *Config) *NotesExporter {
	if clients == nil || clients.StorageClient == nil || config.Storage.NotesBucket == "" {
		return nil
	}
	return &NotesExporter{
		StorageClient: clients.StorageClient,
		IAMClient:     clients.IAMClient,
		SignerEmail:   config.Application.SignerServiceAccountEmail,
		Bucket:        config.Storage.NotesBucket,
		Prefix:        "notes/",
	}
}

// Upload copies the local file to the bucket under Prefix plus its base name.
//
// Inputs:
//   - ctx: Bounds the upload.
//   - localPath: The rendered document.
//   - mimeType: The content type stored on the object.
//
// Outputs:
//   - GCSObject: Where the file now lives.
//   - error: Any open, copy or close failure.
func (e *NotesExporter) Upload(ctx context.Context, localPath string, mimeType string) (GCSObject, error) {
	obj := GCSObject{
		Bucket:   e.Bucket,
		Name:     path.Join(e.Prefix, filepath.Base(localPath)),
		MIMEType: mimeType,
	}

	f, err := os.Open(localPath)
	if err != nil {
		return obj, fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	w := e.StorageClient.Bucket(obj.Bucket).Object(obj.Name).NewWriter(ctx)
	w.ContentType = mimeType
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return obj, fmt.Errorf("uploading to %s: %w", obj.URI(), err)
	}
	if err := w.Close(); err != nil {
		return obj, fmt.Errorf("finalizing %s: %w", obj.URI(), err)
	}
	slog.InfoContext(ctx, "uploaded document", "uri", obj.URI())
	return obj, nil
}

// SignedURL returns a V4 GET URL for obj. With a signer email and an IAM
// client the payload is signed through the IAM Credentials API.
func (e *NotesExporter) SignedURL(ctx context.Context, obj GCSObject) (string, error) {
	expiry := e.Expiry
	if expiry <= 0 {
		expiry = DefaultSignedURLExpiry
	}
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expiry),
	}
	if e.IAMClient != nil && e.SignerEmail != "" {
		opts.GoogleAccessID = e.SignerEmail
		opts.SignBytes = func(b []byte) ([]byte, error) {
			resp, err := e.IAMClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", e.SignerEmail),
				Payload: b,
			})
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		}
	}
	u, err := e.StorageClient.Bucket(obj.Bucket).SignedURL(obj.Name, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", obj.Bucket, obj.Name, err)
	}
	return u, nil
}

// Export uploads the file and signs a link to it.
//
// Outputs:
//   - string: The signed URL.
//   - error: The upload or signing failure.
func (e *NotesExporter) Export(ctx context.Context, localPath string) (string, error) {
	obj, err := e.Upload(ctx, localPath, "application/pdf")
	if err != nil {
		return "", err
	}
	return e.SignedURL(ctx, obj)
}
