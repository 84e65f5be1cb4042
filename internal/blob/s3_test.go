package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeS3Transport implements a minimal S3 wire subset in memory so the
// adapter can be exercised without network access. Path-style requests only.
type fakeS3Transport struct {
	objects map[string]fakeObject
}

type fakeObject struct {
	body        []byte
	contentType string
}

func (f *fakeS3Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	var key string
	if len(parts) == 2 {
		key = parts[1]
	}

	if req.Method == http.MethodGet && strings.Contains(req.URL.RawQuery, "list-type=2") {
		return f.listResponse(req), nil
	}

	switch req.Method {
	case http.MethodHead:
		obj, ok := f.objects[key]
		if !ok {
			return xmlResponse(http.StatusNotFound, ""), nil
		}
		resp := xmlResponse(http.StatusOK, "")
		resp.Header.Set("Content-Length", strconv.Itoa(len(obj.body)))
		resp.Header.Set("Content-Type", obj.contentType)
		resp.Header.Set("ETag", `"fake-etag"`)
		resp.Header.Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		return resp, nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if decoded, ok := decodeAWSChunked(body); ok {
			body = decoded
		}
		if _, exists := f.objects[key]; !exists {
			f.objects[key] = fakeObject{body: body, contentType: req.Header.Get("Content-Type")}
		}
		resp := xmlResponse(http.StatusOK, "")
		resp.Header.Set("ETag", `"fake-etag"`)
		return resp, nil
	case http.MethodGet:
		obj, ok := f.objects[key]
		if !ok {
			return xmlResponse(http.StatusNotFound, ""), nil
		}
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(obj.body)),
			Header:     http.Header{},
		}
		resp.Header.Set("Content-Length", strconv.Itoa(len(obj.body)))
		resp.Header.Set("Content-Type", obj.contentType)
		resp.Header.Set("ETag", `"fake-etag"`)
		resp.Header.Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		return resp, nil
	case http.MethodDelete:
		delete(f.objects, key)
		return xmlResponse(http.StatusNoContent, ""), nil
	}
	return xmlResponse(http.StatusNotImplemented, ""), nil
}

func (f *fakeS3Transport) listResponse(req *http.Request) *http.Response {
	prefix := req.URL.Query().Get("prefix")
	token := req.URL.Query().Get("continuation-token")
	var keys []string
	for k := range f.objects {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><ListBucketResult>`)
	if token == "" && len(keys) > 1 {
		// First page holds a single key so pagination gets exercised.
		b.WriteString("<IsTruncated>true</IsTruncated><NextContinuationToken>page2</NextContinuationToken>")
		writeListEntry(&b, keys[0], len(f.objects[keys[0]].body))
	} else {
		b.WriteString("<IsTruncated>false</IsTruncated>")
		start := 0
		if token != "" && len(keys) > 1 {
			start = 1
		}
		for _, k := range keys[start:] {
			writeListEntry(&b, k, len(f.objects[k].body))
		}
	}
	b.WriteString("</ListBucketResult>")
	return xmlResponse(http.StatusOK, b.String())
}

func writeListEntry(b *strings.Builder, key string, size int) {
	fmt.Fprintf(b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>", key, size)
}

func xmlResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": {"application/xml"}},
	}
}

// decodeAWSChunked unwraps a single-chunk aws-chunked payload: <hex>\r\n<body>\r\n0\r\n...
func decodeAWSChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 {
		return nil, false
	}
	size, err := strconv.ParseInt(parts[0], 16, 64)
	if err != nil || int64(len(parts[1])) != size || parts[2] != "0" {
		return nil, false
	}
	return []byte(parts[1]), true
}

func newFakeS3(t *testing.T) *S3 {
	t.Helper()
	transport := &fakeS3Transport{objects: make(map[string]fakeObject)}
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	if err != nil {
		t.Fatalf("aws config: %v", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String("https://fake.s3.local")
		o.HTTPClient = &http.Client{Transport: transport}
		o.UsePathStyle = true
	})
	return &S3{client: client, bucket: "test-bucket", presign: s3.NewPresignClient(client)}
}

func TestS3PutGetHeadDeleteList(t *testing.T) {
	store := newFakeS3(t)
	ctx := context.Background()

	info, err := store.Put(ctx, "snapshots/a.json", bytes.NewReader([]byte(`{"x":1}`)), PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "snapshots/a.json" || info.ContentType != "application/json" || info.Size == 0 {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "snapshots/a.json", bytes.NewReader([]byte("dup")), PutOptions{}); err == nil {
		t.Fatalf("duplicate put must fail")
	}

	if _, err := store.Head(ctx, "snapshots/a.json"); err != nil {
		t.Fatalf("head: %v", err)
	}
	_, rc, err := store.Get(ctx, "snapshots/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != `{"x":1}` {
		t.Fatalf("body mismatch: %q", string(data))
	}

	if _, err := store.Put(ctx, "snapshots/b.json", bytes.NewReader([]byte("{}")), PutOptions{}); err != nil {
		t.Fatalf("put second: %v", err)
	}
	list, err := store.List(ctx, "snapshots/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Key != "snapshots/a.json" {
		t.Fatalf("unexpected list %+v", list)
	}

	ok, err := store.Delete(ctx, "snapshots/a.json")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if _, err := store.Head(ctx, "snapshots/a.json"); err == nil {
		t.Fatalf("deleted key must not head")
	}
}

func TestS3PresignAndErrorPaths(t *testing.T) {
	store := newFakeS3(t)
	ctx := context.Background()

	if store.Driver() != DriverS3 {
		t.Fatalf("driver = %q", store.Driver())
	}
	url, err := store.PresignURL(ctx, "anything", SignedURLOptions{})
	if err != nil || url == "" {
		t.Fatalf("presign: %v %q", err, url)
	}
	if _, err := store.PresignURL(ctx, "anything", SignedURLOptions{Method: "PUT"}); err != ErrUnsupported {
		t.Fatalf("presign put: %v", err)
	}
	if _, err := store.Head(ctx, "missing"); err == nil {
		t.Fatalf("head missing must fail")
	}
	if _, _, err := store.Get(ctx, "missing"); err == nil {
		t.Fatalf("get missing must fail")
	}
}

func TestOpenS3FromEnv(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRET")
	t.Setenv("PROCURECORE_BLOB_S3_BUCKET", "env-bucket")
	t.Setenv("PROCURECORE_BLOB_S3_REGION", "us-east-1")

	store, err := OpenS3FromEnv(context.Background())
	if err != nil {
		t.Fatalf("open from env: %v", err)
	}
	if store.bucket != "env-bucket" {
		t.Fatalf("bucket = %q", store.bucket)
	}

	t.Setenv("PROCURECORE_BLOB_S3_BUCKET", "")
	if _, err := OpenS3FromEnv(context.Background()); err == nil {
		t.Fatalf("missing bucket must fail")
	}
}
