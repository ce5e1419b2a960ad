package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"newsrag/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ArchiveConfig contains minimal configuration for the raw-article archive.
// AWS credentials come from the standard config/credential chain.
type ArchiveConfig struct {
	Bucket string
	Prefix string
	Region string
	// UsePathStyle forces path-style addressing for S3-compatible providers.
	UsePathStyle bool
}

// NewArchiveConfigFromEnv reads S3_BUCKET, S3_PREFIX, S3_REGION,
// S3_USE_PATH_STYLE. Returns a zero config (Bucket empty) when archival is
// not configured.
func NewArchiveConfigFromEnv() ArchiveConfig {
	prefix := strings.TrimSpace(os.Getenv("S3_PREFIX"))
	if prefix != "" {
		prefix = strings.Trim(prefix, "/") + "/"
	}
	return ArchiveConfig{
		Bucket:       strings.TrimSpace(os.Getenv("S3_BUCKET")),
		Prefix:       prefix,
		Region:       strings.TrimSpace(os.Getenv("S3_REGION")),
		UsePathStyle: strings.EqualFold(strings.TrimSpace(os.Getenv("S3_USE_PATH_STYLE")), "true"),
	}
}

// ArticleArchive writes scraped articles to S3 as JSON records, keyed by
// article ID, so the raw corpus can be rebuilt or audited independently of
// the vector index.
type ArticleArchive struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewArticleArchive creates an archive using the default AWS config chain.
func NewArticleArchive(ctx context.Context, cfg ArchiveConfig) (*ArticleArchive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &ArticleArchive{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (a *ArticleArchive) key(articleID string) string {
	return a.prefix + "articles/" + articleID + ".json"
}

// Put stores the article as an indented JSON record.
func (a *ArticleArchive) Put(ctx context.Context, article *types.Article) error {
	if article == nil {
		return nil
	}

	b, err := json.MarshalIndent(article, "", "  ")
	if err != nil {
		return err
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.key(article.ID)),
		Body:        bytes.NewReader(b),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to archive article %s: %w", article.ID, err)
	}
	return nil
}

// Get fetches an archived article by ID.
func (a *ArticleArchive) Get(ctx context.Context, articleID string) (*types.Article, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(articleID)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch archived article %s: %w", articleID, err)
	}
	defer out.Body.Close()

	var article types.Article
	if err := json.NewDecoder(out.Body).Decode(&article); err != nil {
		return nil, fmt.Errorf("failed to decode archived article %s: %w", articleID, err)
	}
	return &article, nil
}

// Exists reports whether the article is already archived.
func (a *ArticleArchive) Exists(ctx context.Context, articleID string) (bool, error) {
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(articleID)),
	})
	if err == nil {
		return true, nil
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return false, nil
	}
	return false, err
}
