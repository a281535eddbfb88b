package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stringshare/ordervault/internal/common"
	sc "github.com/stringshare/ordervault/internal/server/config"
	"github.com/stringshare/ordervault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAttachmentsRepo struct {
	byID map[string]*models.Attachment
}

func (f *fakeAttachmentsRepo) Create(ctx context.Context, a *models.Attachment) error {
	f.byID[a.ID] = a
	return nil
}

func (f *fakeAttachmentsRepo) Get(ctx context.Context, id string) (*models.Attachment, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return a, nil
}

func (f *fakeAttachmentsRepo) ListByOrder(ctx context.Context, orderID string) ([]*models.Attachment, error) {
	var out []*models.Attachment
	for _, a := range f.byID {
		if a.OrderID == orderID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttachmentsRepo) MarkUploaded(ctx context.Context, id string) error {
	a, ok := f.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	a.UploadStatus = models.UploadStatusUploaded
	return nil
}

// stubPresignSeams replaces the AWS wiring with stubs that return canned
// URLs, restoring the real functions on cleanup.
func stubPresignSeams(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := presignPutObject
	origGet := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "https://s3.test/put/" + *in.Key}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "https://s3.test/get/" + *in.Key}, nil
	}
}

func newAttachmentService(t *testing.T, rm *fakeRepoManager) *AttachmentService {
	t.Helper()
	db, _ := newSQLMockDB(t)
	t.Cleanup(func() { db.Close() })
	cfg := &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "admin",
		S3RootPassword: "secretpassword",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "attachments",
	}
	return NewAttachmentService(db, rm, cfg)
}

func seedOrder(rm *fakeRepoManager) *models.PurchaseOrder {
	o := &models.PurchaseOrder{ID: "po-1", SenderID: "u-alice", SupervisorID: "u-bob", Status: models.StatusPending}
	rm.o.byID[o.ID] = o
	return o
}

func TestRequestUpload(t *testing.T) {
	stubPresignSeams(t)
	rm := newFakeRepoManager(t)
	seedOrder(rm)
	s := newAttachmentService(t, rm)

	task, err := s.RequestUpload(context.Background(), "po-1", "quote.pdf", []byte("wrapped-key"), []byte("nonce"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(task.URL, "https://s3.test/put/orders/"))

	a := rm.a.byID[task.AttachmentID]
	require.NotNil(t, a)
	assert.Equal(t, "po-1", a.OrderID)
	assert.Equal(t, "quote.pdf", a.FileName)
	assert.Equal(t, models.UploadStatusPending, a.UploadStatus)
	assert.NotEmpty(t, a.StorageKey)
}

func TestRequestUpload_UnknownOrder(t *testing.T) {
	stubPresignSeams(t)
	rm := newFakeRepoManager(t)
	s := newAttachmentService(t, rm)

	_, err := s.RequestUpload(context.Background(), "no-such-order", "quote.pdf", nil, nil)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestConfirmUpload_ThenDownload(t *testing.T) {
	stubPresignSeams(t)
	rm := newFakeRepoManager(t)
	seedOrder(rm)
	s := newAttachmentService(t, rm)

	task, err := s.RequestUpload(context.Background(), "po-1", "quote.pdf", nil, nil)
	require.NoError(t, err)

	// download before the upload is confirmed is refused
	_, _, err = s.GetDownloadURL(context.Background(), task.AttachmentID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, s.ConfirmUpload(context.Background(), task.AttachmentID))

	a, url, err := s.GetDownloadURL(context.Background(), task.AttachmentID)
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusUploaded, a.UploadStatus)
	assert.Equal(t, "https://s3.test/get/"+a.StorageKey, url)
}

func TestRequestUpload_PresignError(t *testing.T) {
	stubPresignSeams(t)
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-fail")
	}

	rm := newFakeRepoManager(t)
	seedOrder(rm)
	s := newAttachmentService(t, rm)

	_, err := s.RequestUpload(context.Background(), "po-1", "quote.pdf", nil, nil)
	require.Error(t, err)
	assert.Empty(t, rm.a.byID)
}

func TestListForOrder(t *testing.T) {
	stubPresignSeams(t)
	rm := newFakeRepoManager(t)
	seedOrder(rm)
	s := newAttachmentService(t, rm)

	for _, name := range []string{"a.pdf", "b.pdf"} {
		_, err := s.RequestUpload(context.Background(), "po-1", name, nil, nil)
		require.NoError(t, err)
	}

	list, err := s.ListForOrder(context.Background(), "po-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestGetRandomStorageKey_DatePartitioned(t *testing.T) {
	k1 := GetRandomStorageKey()
	k2 := GetRandomStorageKey()
	assert.True(t, strings.HasPrefix(k1, "orders/"))
	assert.NotEqual(t, k1, k2)
}
