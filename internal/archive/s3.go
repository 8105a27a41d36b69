package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pageza/modelhistory/internal/history"
)

// ObjectPutter is the part of the S3 client the archiver needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Document is the archived form of an entity's history
type Document struct {
	Model      string          `json:"model"`
	ForeignKey string          `json:"foreign_key"`
	ArchivedAt time.Time       `json:"archived_at"`
	Entries    []history.Entry `json:"entries"`
}

// Archiver writes history documents to an S3 bucket
type Archiver struct {
	client ObjectPutter
	bucket string
	now    func() time.Time
}

func NewArchiver(client ObjectPutter, bucket string) *Archiver {
	return &Archiver{client: client, bucket: bucket, now: time.Now}
}

// Key returns the object key for an archive of model/id taken at t
func Key(model, id string, t time.Time) string {
	return fmt.Sprintf("history/%s/%s/%s.json", model, id, t.UTC().Format("20060102T150405Z"))
}

// Archive uploads the entries and returns the object key
func (a *Archiver) Archive(ctx context.Context, model, id string, entries []history.Entry) (string, error) {
	doc := Document{
		Model:      model,
		ForeignKey: id,
		ArchivedAt: a.now().UTC(),
		Entries:    entries,
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode archive: %w", err)
	}

	key := Key(model, id, doc.ArchivedAt)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload archive: %w", err)
	}

	log.Printf("Archived %d history entries of %s %s to s3://%s/%s", len(entries), model, id, a.bucket, key)
	return key, nil
}
