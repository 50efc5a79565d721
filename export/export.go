// Package export writes series frames to their destination, one CSV per
// variable, either into a local directory or an S3 bucket.
package export

import (
	"bytes"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"

	"github.com/phenotools/silexplorer/frame"
)

// Sink stores one named frame.
type Sink interface {
	Put(name string, f *frame.Frame) error
}

// WriteSeries stores every series of a per-variable map under
// <variable>_data.
func WriteSeries(sink Sink, series map[string]*frame.Frame) error {
	for name, f := range series {
		if err := sink.Put(name+"_data", f); err != nil {
			return errors.Wrapf(err, "writing series %s", name)
		}
	}
	return nil
}

// DirSink writes frames as <dir>/<name>.csv, creating directories as
// needed.
type DirSink struct {
	dir string
}

// NewDirSink returns a DirSink rooted at dir.
func NewDirSink(dir string) *DirSink {
	return &DirSink{dir: dir}
}

// Put writes f to <dir>/<name>.csv.
func (d *DirSink) Put(name string, f *frame.Frame) error {
	return f.WriteFile(filepath.Join(d.dir, name+".csv"))
}

// S3Option is a functional option type for S3Sink.
type S3Option func(s *S3Sink)

// OptS3Region sets the AWS region.
func OptS3Region(region string) S3Option {
	return func(s *S3Sink) {
		s.region = region
	}
}

// OptS3Prefix sets the key prefix objects are stored under.
func OptS3Prefix(prefix string) S3Option {
	return func(s *S3Sink) {
		s.prefix = prefix
	}
}

// S3Sink uploads frames as CSV objects to s3://<bucket>/<prefix>/<name>.csv.
type S3Sink struct {
	bucket string
	prefix string
	region string

	s3 s3iface.S3API
}

// NewS3Sink returns an S3Sink writing to bucket with the options applied.
func NewS3Sink(bucket string, opts ...S3Option) (*S3Sink, error) {
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}
	s := &S3Sink{
		bucket: bucket,
		region: "us-east-1",
	}
	for _, opt := range opts {
		opt(s)
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(s.region)},
	)
	if err != nil {
		return nil, errors.Wrap(err, "getting aws session")
	}
	s.s3 = s3.New(sess)
	return s, nil
}

// Put uploads f as a CSV object.
func (s *S3Sink) Put(name string, f *frame.Frame) error {
	buf := &bytes.Buffer{}
	if err := f.WriteCSV(buf); err != nil {
		return errors.Wrap(err, "encoding csv")
	}
	key := name + ".csv"
	if s.prefix != "" {
		key = path.Join(s.prefix, key)
	}
	_, err := s.s3.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	})
	return errors.Wrapf(err, "putting object %s", key)
}
