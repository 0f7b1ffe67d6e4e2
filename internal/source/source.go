// Package source resolves a lecture's audio reference to a local file.
// References are either local paths or s3://bucket/key URLs; S3 objects
// are downloaded to a temporary file that Audio.Close removes.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

const s3Scheme = "s3://"

var (
	// ErrNotFound indicates the referenced audio does not exist.
	ErrNotFound = errors.New("audio source not found")

	// ErrInvalidRef indicates a malformed audio reference.
	ErrInvalidRef = errors.New("invalid audio reference")
)

// Ref is a parsed audio reference.
type Ref struct {
	Path   string // local file, empty for S3
	Bucket string
	Key    string
}

// IsS3 reports whether the reference points into a bucket.
func (r Ref) IsS3() bool { return r.Bucket != "" }

func (r Ref) String() string {
	if r.IsS3() {
		return s3Scheme + r.Bucket + "/" + r.Key
	}
	return r.Path
}

// ParseRef parses a local path or an s3://bucket/key URL.
func ParseRef(ref string) (Ref, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Ref{}, fmt.Errorf("empty reference: %w", ErrInvalidRef)
	}
	rest, ok := strings.CutPrefix(ref, s3Scheme)
	if !ok {
		return Ref{Path: ref}, nil
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return Ref{}, fmt.Errorf("%q needs s3://bucket/key: %w", ref, ErrInvalidRef)
	}
	return Ref{Bucket: bucket, Key: key}, nil
}

// S3Config configures access to S3 or an S3-compatible service.
type S3Config struct {
	Region    string
	Endpoint  string // custom endpoint (MinIO, LocalStack); enables path-style addressing
	AccessKey string
	SecretKey string
}

// objectGetter is the subset of *awss3.Client used here.
type objectGetter interface {
	GetObject(ctx context.Context, in *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

var _ objectGetter = (*awss3.Client)(nil)

// NewS3Client builds an S3 client from cfg and the default AWS credential chain.
func NewS3Client(ctx context.Context, cfg S3Config) (*awss3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var s3Opts []func(*awss3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return awss3.NewFromConfig(awsCfg, s3Opts...), nil
}

// Audio is a resolved, readable audio file.
type Audio struct {
	Path  string
	temp  bool
	files fileRemover
}

// Close removes the file if it was downloaded. Local files are left alone.
func (a *Audio) Close() error {
	if !a.temp {
		return nil
	}
	if err := a.files.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Resolver opens audio references.
type Resolver struct {
	cfg     S3Config
	tempDir string
	fs      filesystem
	log     zerolog.Logger

	mu    sync.Mutex
	s3    objectGetter
	newS3 func(ctx context.Context) (objectGetter, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithS3Config sets the S3 configuration used when the first S3
// reference is opened.
func WithS3Config(cfg S3Config) Option {
	return func(r *Resolver) {
		r.cfg = cfg
	}
}

// WithTempDir sets where S3 objects are downloaded. Default: os.TempDir().
func WithTempDir(dir string) Option {
	return func(r *Resolver) {
		r.tempDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Resolver) {
		r.log = log
	}
}

// withS3Client sets the S3 client (for testing).
func withS3Client(c objectGetter) Option {
	return func(r *Resolver) {
		r.s3 = c
	}
}

// withFilesystem sets the filesystem (for testing).
func withFilesystem(f filesystem) Option {
	return func(r *Resolver) {
		r.fs = f
	}
}

// NewResolver creates a Resolver. The S3 client is built on first use.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		fs:  osFilesystem{},
		log: zerolog.Nop(),
	}
	r.newS3 = func(ctx context.Context) (objectGetter, error) {
		return NewS3Client(ctx, r.cfg)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open resolves ref to a local file. The caller must Close the result.
func (r *Resolver) Open(ctx context.Context, ref string) (*Audio, error) {
	parsed, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	if !parsed.IsS3() {
		return r.openLocal(parsed.Path)
	}
	return r.download(ctx, parsed)
}

func (r *Resolver) openLocal(p string) (*Audio, error) {
	info, err := r.fs.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", p, ErrInvalidRef)
	}
	return &Audio{Path: p}, nil
}

func (r *Resolver) client(ctx context.Context) (objectGetter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.s3 == nil {
		c, err := r.newS3(ctx)
		if err != nil {
			return nil, err
		}
		r.s3 = c
	}
	return r.s3, nil
}

func (r *Resolver) download(ctx context.Context, ref Ref) (_ *Audio, err error) {
	c, err := r.client(ctx)
	if err != nil {
		return nil, err
	}

	out, err := c.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", ref, err)
	}
	defer out.Body.Close()

	f, err := r.fs.CreateTemp(r.tempDir, "go-lecturequiz-src-*"+path.Ext(ref.Key))
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	audio := &Audio{Path: f.Name(), temp: true, files: r.fs}
	defer func() {
		if err != nil {
			_ = audio.Close()
		}
	}()

	n, err := io.Copy(f, out.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", ref, err)
	}

	r.log.Info().Str("ref", ref.String()).Int64("bytes", n).Msg("audio downloaded")
	return audio, nil
}
