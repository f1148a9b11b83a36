// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/apex/log"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/staranto/unitdex/internal/aws"
)

// maxBodySize caps how much of a single response is read.
const maxBodySize = 64 * 1024 * 1024

// Response is what a Fetcher got back from a source.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports whether StatusCode is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher retrieves the raw bytes behind a source URL. A non-2xx outcome is a
// Response, not an error; errors are reserved for transport failures.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, bypass bool) (*Response, error)
}

// S3API is the slice of the S3 client Sources needs.
type S3API interface {
	GetObject(ctx context.Context, in *s3v2.GetObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error)
}

// Sources is the default Fetcher. It dispatches on the URL scheme:
// http(s) through Client, s3:// through S3, and file:// or a bare path from
// disk. Paths without a scheme are first joined onto BaseURL when one is set.
type Sources struct {
	BaseURL string
	Client  *http.Client

	// NewS3 builds the S3 client on first use. Nil means aws.NewS3Client with
	// the shell's AWS setup.
	NewS3 func(ctx context.Context) (S3API, error)

	s3Once sync.Once
	s3     S3API
	s3Err  error
}

// Resolve turns a possibly relative source into an absolute one.
func (s *Sources) Resolve(raw string) string {
	if hasScheme(raw) || s.BaseURL == "" {
		return raw
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(raw, "/")
}

// Fetch implements Fetcher.
func (s *Sources) Fetch(ctx context.Context, rawURL string, bypass bool) (*Response, error) {
	resolved := s.Resolve(rawURL)

	switch {
	case strings.HasPrefix(resolved, "http://"), strings.HasPrefix(resolved, "https://"):
		return s.fetchHTTP(ctx, resolved, bypass)
	case strings.HasPrefix(resolved, "s3://"):
		return s.fetchS3(ctx, resolved)
	default:
		return fetchFile(resolved)
	}
}

func (s *Sources) fetchHTTP(ctx context.Context, u string, bypass bool) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if bypass {
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := readLimited(resp.Body)
	if err != nil {
		return nil, err
	}

	log.WithField("url", u).WithField("status", resp.StatusCode).Debug("fetched")
	return &Response{StatusCode: resp.StatusCode, ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}

func (s *Sources) fetchS3(ctx context.Context, u string) (*Response, error) {
	bucket, key, err := aws.ParseS3URL(u)
	if err != nil {
		return nil, err
	}

	s.s3Once.Do(func() {
		if s.NewS3 != nil {
			s.s3, s.s3Err = s.NewS3(ctx)
			return
		}
		s.s3, s.s3Err = aws.NewS3Client(ctx)
	})
	if s.s3Err != nil {
		return nil, s.s3Err
	}

	out, err := s.s3.GetObject(ctx, &s3v2.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		var re *awshttp.ResponseError
		if errors.As(err, &re) {
			return &Response{StatusCode: re.HTTPStatusCode()}, nil
		}
		return nil, fmt.Errorf("failed to get s3 object: %w", err)
	}
	defer out.Body.Close()

	body, err := readLimited(out.Body)
	if err != nil {
		return nil, err
	}
	resp := &Response{StatusCode: http.StatusOK, Body: body}
	if out.ContentType != nil {
		resp.ContentType = *out.ContentType
	}
	return resp, nil
}

func fetchFile(u string) (*Response, error) {
	p := u
	if strings.HasPrefix(u, "file://") {
		parsed, err := url.Parse(u)
		if err != nil {
			return nil, fmt.Errorf("invalid file url %q: %w", u, err)
		}
		p = parsed.Path
	}

	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return &Response{StatusCode: http.StatusNotFound}, nil
		}
		if os.IsPermission(err) {
			return &Response{StatusCode: http.StatusForbidden}, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer f.Close()

	body, err := readLimited(f)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: http.StatusOK, Body: body}, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(raw) > maxBodySize {
		return nil, fmt.Errorf("response body too large (exceeds %d bytes)", maxBodySize)
	}
	return raw, nil
}

func hasScheme(raw string) bool {
	i := strings.Index(raw, "://")
	return i > 0
}
