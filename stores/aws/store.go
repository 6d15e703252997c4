package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"designer-pro/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const (
	designsPrefix = "designs"
	assetsPrefix  = "assets"
)

// objectAPI is the part of *s3.Client the store uses.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// s3Store keeps designs as JSON objects under designs/<user>/<id>.json and
// assets under assets/<name>.
type s3Store struct {
	s3Client objectAPI
	bucket   string
}

// NewStore creates a new S3-based store using the default AWS config chain.
func NewStore(ctx context.Context, bucketName string) (*s3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return newStore(s3.NewFromConfig(cfg), bucketName), nil
}

func newStore(client objectAPI, bucket string) *s3Store {
	return &s3Store{s3Client: client, bucket: bucket}
}

func designKey(userID, id string) (string, error) {
	if !core.ValidKey(userID) {
		return "", fmt.Errorf("user %q: %w", userID, core.ErrInvalidKey)
	}
	if !core.ValidKey(id) {
		return "", fmt.Errorf("design %q: %w", id, core.ErrInvalidKey)
	}
	return path.Join(designsPrefix, userID, id+".json"), nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

func (s *s3Store) getObject(ctx context.Context, key string) ([]byte, string, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, "", fmt.Errorf("%s: %w", key, core.ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, aws.ToString(resp.ContentType), nil
}

func (s *s3Store) List(ctx context.Context, userID string, limit int) ([]*core.Design, error) {
	if !core.ValidKey(userID) {
		return nil, fmt.Errorf("user %q: %w", userID, core.ErrInvalidKey)
	}
	log := logrus.WithField("user_id", userID)
	prefix := path.Join(designsPrefix, userID) + "/"

	designs := []*core.Design{}
	p := s3.NewListObjectsV2Paginator(s.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list designs for user %s: %w", userID, err)
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			data, _, err := s.getObject(ctx, key)
			if err != nil {
				log.WithError(err).Warnf("Failed to get object %s, skipping", key)
				continue
			}
			var d core.Design
			if err := json.Unmarshal(data, &d); err != nil {
				log.WithError(err).Warnf("Failed to unmarshal design %s, skipping", key)
				continue
			}
			d.UserID = userID
			designs = append(designs, &d)
		}
	}
	designs = core.NewestFirst(designs, limit)

	log.Infof("Listed %d designs", len(designs))
	return designs, nil
}

func (s *s3Store) Get(ctx context.Context, userID, id string) (*core.Design, error) {
	key, err := designKey(userID, id)
	if err != nil {
		return nil, err
	}
	data, _, err := s.getObject(ctx, key)
	if err != nil {
		return nil, err
	}
	var d core.Design
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal design %s: %w", id, err)
	}
	d.UserID = userID
	return &d, nil
}

func (s *s3Store) Create(ctx context.Context, design *core.Design) error {
	id := ulid.Make().String()
	key, err := designKey(design.UserID, id)
	if err != nil {
		return err
	}
	design.ID = id
	design.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(design)
	if err != nil {
		return fmt.Errorf("failed to marshal design: %w", err)
	}
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to save design %s: %w", id, err)
	}
	logrus.WithFields(logrus.Fields{"user_id": design.UserID, "design_id": id}).Info("Design created successfully")
	return nil
}

func (s *s3Store) Delete(ctx context.Context, userID, id string) error {
	key, err := designKey(userID, id)
	if err != nil {
		return err
	}
	// DeleteObject succeeds for missing keys, so check first.
	if _, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("design %s: %w", id, core.ErrNotFound)
		}
		return fmt.Errorf("failed to stat design %s: %w", id, err)
	}
	_, err = s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete design %s: %w", id, err)
	}
	logrus.WithFields(logrus.Fields{"user_id": userID, "design_id": id}).Info("Design deleted successfully")
	return nil
}

func (s *s3Store) Put(ctx context.Context, name, contentType string, data []byte) error {
	if !core.ValidKey(name) {
		return fmt.Errorf("asset %q: %w", name, core.ErrInvalidKey)
	}
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path.Join(assetsPrefix, name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload asset %s: %w", name, err)
	}
	return nil
}

func (s *s3Store) Open(ctx context.Context, name string) ([]byte, string, error) {
	if !core.ValidKey(name) {
		return nil, "", fmt.Errorf("asset %q: %w", name, core.ErrInvalidKey)
	}
	return s.getObject(ctx, path.Join(assetsPrefix, name))
}
