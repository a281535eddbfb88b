package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stringshare/ordervault/internal/common"
	sc "github.com/stringshare/ordervault/internal/server/config"
	"github.com/stringshare/ordervault/internal/server/models"
	"github.com/stringshare/ordervault/internal/server/repositories/repomanager"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// AttachmentService manages encrypted file attachments on purchase orders.
// File bytes never pass through this process: clients encrypt locally and
// transfer directly against object storage using presigned URLs.
type AttachmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewAttachmentService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config) *AttachmentService {
	return &AttachmentService{
		db:          db,
		repomanager: repomanager,
		config:      config,
	}
}

// GetRandomStorageKey returns a date-partitioned object key. Keys are
// opaque; the attachment row maps them back to orders.
func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("orders/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *AttachmentService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// AttachmentUploadTask is the client's half of a pending upload: where to
// PUT the ciphertext and which attachment row it belongs to.
type AttachmentUploadTask struct {
	AttachmentID string
	URL          string
}

// RequestUpload registers a pending attachment on an order and returns a
// presigned PUT URL valid for 15 minutes. The caller is one of the order's
// envelope recipients; fileKey and nonce are the wrapped file key material
// the uploader produced, stored opaque.
func (s *AttachmentService) RequestUpload(ctx context.Context, orderID, fileName string, fileKey, nonce []byte) (*AttachmentUploadTask, error) {
	if _, err := s.repomanager.Orders(s.db).GetByID(ctx, orderID); err != nil {
		return nil, err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey()

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return nil, err
	}

	a := &models.Attachment{
		ID:               uuid.NewString(),
		OrderID:          orderID,
		FileName:         fileName,
		StorageKey:       key,
		EncryptedFileKey: fileKey,
		Nonce:            nonce,
		UploadStatus:     models.UploadStatusPending,
	}

	if err := s.repomanager.Attachments(s.db).Create(ctx, a); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrPersistenceFailure, err)
	}

	return &AttachmentUploadTask{AttachmentID: a.ID, URL: req.URL}, nil
}

// ConfirmUpload flips an attachment to uploaded once the client finished
// its PUT.
func (s *AttachmentService) ConfirmUpload(ctx context.Context, attachmentID string) error {
	return s.repomanager.Attachments(s.db).MarkUploaded(ctx, attachmentID)
}

// GetDownloadURL returns a presigned GET URL for an uploaded attachment.
func (s *AttachmentService) GetDownloadURL(ctx context.Context, attachmentID string) (*models.Attachment, string, error) {
	a, err := s.repomanager.Attachments(s.db).Get(ctx, attachmentID)
	if err != nil {
		return nil, "", err
	}
	if a.UploadStatus != models.UploadStatusUploaded {
		return nil, "", common.ErrNotFound
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return nil, "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &a.StorageKey,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return nil, "", err
	}

	return a, req.URL, nil
}

// ListForOrder returns all attachments registered against an order.
func (s *AttachmentService) ListForOrder(ctx context.Context, orderID string) ([]*models.Attachment, error) {
	return s.repomanager.Attachments(s.db).ListByOrder(ctx, orderID)
}
