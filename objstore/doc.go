// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package objstore stores gallery files in an S3 compatible bucket
// (minio-go client) or, without credentials, in memory.
package objstore
