package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/config"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
)

const exportLinkValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// exportDocument is the JSON object written to storage.
type exportDocument struct {
	UserID     string     `json:"userId"`
	ExportedAt time.Time  `json:"exportedAt"`
	Notes      []api.Note `json:"notes"`
}

// ExportService writes a user's visible notes to S3-compatible storage and
// hands back a time-limited download link.
type ExportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
	logger      logging.Logger
}

func NewExportService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *ExportService {
	return &ExportService{db: db, repomanager: m, config: cfg, logger: logger}
}

func exportKey(userID string, now time.Time) string {
	return fmt.Sprintf("exports/%s/%d/%02d/%02d/%s.json", userID, now.Year(), now.Month(), now.Day(), uuid.New())
}

func (s *ExportService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		// MinIO and most self-hosted stores do not serve virtual-host buckets.
		o.UsePathStyle = true
	}), nil
}

func (s *ExportService) Export(ctx context.Context, userID string) (*api.ExportResponse, error) {
	owned, err := s.repomanager.Notes(s.db).ListOwned(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing notes: %w", err)
	}

	now := timeNow().UTC()
	body, err := json.Marshal(exportDocument{UserID: userID, ExportedAt: now, Notes: notesToAPI(owned)})
	if err != nil {
		return nil, fmt.Errorf("error encoding export: %w", err)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := exportKey(userID, now)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("error uploading export: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(exportLinkValidity))
	if err != nil {
		return nil, fmt.Errorf("error presigning export: %w", err)
	}

	s.logger.Info(ctx, "notes exported", "user", userID, "key", key, "notes", len(owned))

	return &api.ExportResponse{
		Key:       key,
		URL:       req.URL,
		Notes:     len(owned),
		ExpiresAt: now.Add(exportLinkValidity),
	}, nil
}
