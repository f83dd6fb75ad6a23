// Package sink abstracts the output destination behind a single
// line-oriented writer. Only the in-order executor goroutine writes to
// it, so implementations need no locking of their own.
//
// The destination is selected by the -o/--output value: "-" or empty
// means standard output, an s3://, gs:// or file:// URI opens the
// matching blob bucket, and anything else is a local file path.
package sink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // local file driver
	_ "gocloud.dev/blob/gcsblob"  // GCS driver
	_ "gocloud.dev/blob/s3blob"   // S3 driver

	"github.com/dmlogsplit/dmlogsplit/internal/errs"
	"github.com/dmlogsplit/dmlogsplit/internal/util"
)

// Writer is the single-writer output sink.
type Writer interface {
	// WriteString appends s to the output.
	WriteString(s string) error

	// Close flushes buffered output and releases the destination.
	Close() error
}

// Open resolves dest and returns a Writer for it.
func Open(dest string) (Writer, error) {
	if dest == "" || dest == "-" {
		return &streamWriter{w: bufio.NewWriter(os.Stdout)}, nil
	}

	if strings.Contains(dest, "://") {
		return openBucket(dest)
	}

	f, err := os.Create(dest)
	if err != nil {
		return nil, errs.NewArgumentError("failed to open output file %q: %v", dest, err)
	}
	return &streamWriter{w: bufio.NewWriter(f), closer: f}, nil
}

// streamWriter writes to stdout or a local file through a buffer.
type streamWriter struct {
	w      *bufio.Writer
	closer io.Closer
}

func (s *streamWriter) WriteString(str string) error {
	if _, err := s.w.WriteString(str); err != nil {
		return errs.NewResourceError("write output", err)
	}
	return nil
}

func (s *streamWriter) Close() error {
	if err := s.w.Flush(); err != nil {
		return errs.NewResourceError("flush output", err)
	}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			return errs.NewResourceError("close output", err)
		}
	}
	return nil
}

// bucketWriter streams the output into one blob object. The object
// becomes visible when Close commits it.
type bucketWriter struct {
	bucket *blob.Bucket
	w      *blob.Writer
	buf    *bufio.Writer
}

func openBucket(dest string) (Writer, error) {
	u, err := url.Parse(dest)
	if err != nil {
		return nil, errs.NewArgumentError("invalid output URI %q: %v", dest, err)
	}

	dir, key := path.Split(u.Path)
	if key == "" {
		return nil, errs.NewArgumentError("output URI %q does not name an object", dest)
	}

	ctx := context.Background()
	var bucketURL string
	switch u.Scheme {
	case "file":
		dir = strings.TrimSuffix(dir, "/")
		if dir == "" {
			dir = "."
		}
		if err := util.EnsureDir(dir); err != nil {
			return nil, errs.NewResourceError(fmt.Sprintf("create output directory %s", dir), err)
		}
		bucketURL = "file://" + dir
	case "s3", "gs":
		bucketURL = fmt.Sprintf("%s://%s", u.Scheme, u.Host)
		key = strings.TrimPrefix(u.Path, "/")
	default:
		return nil, errs.NewArgumentError("unsupported output scheme %q", u.Scheme)
	}

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errs.NewResourceError(fmt.Sprintf("open bucket %s", bucketURL), err)
	}

	w, err := bucket.NewWriter(ctx, key, nil)
	if err != nil {
		bucket.Close()
		return nil, errs.NewResourceError(fmt.Sprintf("create writer for %s", key), err)
	}

	return &bucketWriter{bucket: bucket, w: w, buf: bufio.NewWriter(w)}, nil
}

func (b *bucketWriter) WriteString(s string) error {
	if _, err := b.buf.WriteString(s); err != nil {
		return errs.NewResourceError("write output object", err)
	}
	return nil
}

func (b *bucketWriter) Close() error {
	if err := b.buf.Flush(); err != nil {
		b.w.Close()
		b.bucket.Close()
		return errs.NewResourceError("flush output object", err)
	}
	if err := b.w.Close(); err != nil {
		b.bucket.Close()
		return errs.NewResourceError("commit output object", err)
	}
	if err := b.bucket.Close(); err != nil {
		return errs.NewResourceError("close bucket", err)
	}
	return nil
}
