// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// options holds optional overrides for AWS config loading.
type options struct {
	profile  string
	region   string
	endpoint string
	retryer  func() awsv2.Retryer
}

// Option customizes how AWS config is loaded.
// Default behavior (no options) inherits the shell environment and shared
// config chain (AWS_PROFILE, ~/.aws/config, ~/.aws/credentials, IMDS, etc.).
type Option func(*options)

// WithProfile sets the shared config profile.
func WithProfile(profile string) Option {
	return func(o *options) { o.profile = profile }
}

// WithRegion sets the region override.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithEndpoint points S3 at a compatible service (MinIO, R2, ...). Requests
// then use path-style addressing.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// WithRetryer injects a custom retryer; if not set, the SDK's own retries are
// disabled so a failed fetch surfaces immediately.
func WithRetryer(newRetryer func() awsv2.Retryer) Option {
	return func(o *options) { o.retryer = newRetryer }
}

// LoadAWSConfig loads AWS SDK v2 config, inheriting the shell's AWS setup.
func LoadAWSConfig(ctx context.Context, opts ...Option) (awsv2.Config, error) {
	o := collect(opts)

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRetryer(o.retryer),
	}
	if o.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
	}
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}

	return config.LoadDefaultConfig(ctx, loadOpts...)
}

// NewS3Client loads config and constructs an S3 client in one step.
func NewS3Client(ctx context.Context, opts ...Option) (*s3v2.Client, error) {
	cfg, err := LoadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	o := collect(opts)
	return s3v2.NewFromConfig(cfg, func(so *s3v2.Options) {
		if o.endpoint != "" {
			so.BaseEndpoint = awsv2.String(o.endpoint)
			so.UsePathStyle = true
		}
	}), nil
}

// ParseS3URL splits s3://bucket/path/to/key into bucket and key.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 url %q: %w", raw, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("not an s3 url: %q", raw)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 url needs a bucket and key: %q", raw)
	}
	return bucket, key, nil
}

func collect(opts []Option) options {
	o := options{
		retryer: func() awsv2.Retryer { return awsv2.NopRetryer{} },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
