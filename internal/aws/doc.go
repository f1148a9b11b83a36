// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package aws contains the AWS SDK v2 helpers used to read datasets published
// to S3 (or an S3-compatible endpoint) via s3://bucket/key sources.
package aws
