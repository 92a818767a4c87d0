package store

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	s3api "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

type fakeS3 struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), contentTypes: make(map[string]string)}
}

func (f *fakeS3) keys() []string {
	var ks []string
	for k := range f.objects {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

func (f *fakeS3) GetObject(_ context.Context, in *s3api.GetObjectInput, _ ...func(*s3api.Options)) (*s3api.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3api.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3api.PutObjectInput, _ ...func(*s3api.Options)) (*s3api.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if in.IfNoneMatch != nil && *in.IfNoneMatch == "*" {
		if _, ok := f.objects[*in.Key]; ok {
			return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
		}
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = data
	if in.ContentType != nil {
		f.contentTypes[*in.Key] = *in.ContentType
	}
	return &s3api.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3api.HeadObjectInput, _ ...func(*s3api.Options)) (*s3api.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3api.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3api.DeleteObjectInput, _ ...func(*s3api.Options)) (*s3api.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *in.Key)
	return &s3api.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3api.ListObjectsV2Input, _ ...func(*s3api.Options)) (*s3api.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := ""
	if in.Prefix != nil {
		prefix = *in.Prefix
	}
	out := &s3api.ListObjectsV2Output{}
	for _, k := range f.keys() {
		if strings.HasPrefix(k, prefix) {
			key := k
			out.Contents = append(out.Contents, s3types.Object{Key: &key})
		}
	}
	return out, nil
}
