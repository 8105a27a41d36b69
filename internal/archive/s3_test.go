package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pageza/modelhistory/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestArchive(t *testing.T) {
	putter := &fakePutter{}
	a := NewArchiver(putter, "archive-bucket")
	a.now = func() time.Time { return time.Date(2026, 10, 17, 12, 30, 0, 0, time.UTC) }

	entries := []history.Entry{{Model: "articles", ForeignKey: "abc", Action: "create", Revision: 1, Changes: []history.Change{}}}
	key, err := a.Archive(context.Background(), "articles", "abc", entries)
	require.NoError(t, err)

	assert.Equal(t, "history/articles/abc/20261017T123000Z.json", key)
	assert.Equal(t, "archive-bucket", aws.ToString(putter.input.Bucket))
	assert.Equal(t, key, aws.ToString(putter.input.Key))
	assert.Equal(t, "application/json", aws.ToString(putter.input.ContentType))

	var doc Document
	require.NoError(t, json.Unmarshal(putter.body, &doc))
	assert.Equal(t, "articles", doc.Model)
	assert.Equal(t, "abc", doc.ForeignKey)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, 1, doc.Entries[0].Revision)
}

func TestArchiveUploadError(t *testing.T) {
	a := NewArchiver(&fakePutter{err: errors.New("denied")}, "archive-bucket")

	_, err := a.Archive(context.Background(), "articles", "abc", nil)
	assert.ErrorContains(t, err, "denied")
}
