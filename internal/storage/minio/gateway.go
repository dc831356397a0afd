// Package minio stores pods in an S3 compatible bucket. A pod URL maps to the
// object key host+path; containers are marker objects whose key ends with a
// slash, and the access control of a resource lives at its key plus ".acl".
package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/dtroode/podkeeper/internal/dataset"
	"github.com/dtroode/podkeeper/internal/model"
)

const (
	aclSuffix           = ".acl"
	containerMarkerType = "application/x-directory"
	aclContentType      = "application/json"
	modifiedByKey       = "Modified-By"
)

// Internal adapter interface to enable mocking without a real MinIO server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) ([]minio.ObjectInfo, error)
}

// Wrapper to adapt *minio.Client to minioAPI.
type minioClientWrapper struct{ c *minio.Client }

func (w minioClientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}
func (w minioClientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}
func (w minioClientWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}
func (w minioClientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := w.c.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}
func (w minioClientWrapper) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return w.c.RemoveObject(ctx, bucketName, objectName, opts)
}
func (w minioClientWrapper) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return w.c.StatObject(ctx, bucketName, objectName, opts)
}
func (w minioClientWrapper) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) ([]minio.ObjectInfo, error) {
	var out []minio.ObjectInfo
	for obj := range w.c.ListObjects(ctx, bucketName, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		out = append(out, obj)
	}
	return out, nil
}

var _ model.Gateway = (*Gateway)(nil)

type Gateway struct {
	api    minioAPI
	bucket string
	scheme string
}

// NewGateway creates a pod gateway on top of a real *minio.Client instance.
// scheme is used to turn object keys back into pod URLs.
func NewGateway(ctx context.Context, client *minio.Client, bucket, scheme string) (*Gateway, error) {
	return NewGatewayWithAPI(ctx, minioClientWrapper{c: client}, bucket, scheme)
}

// NewGatewayWithAPI allows injecting a mockable API (used in tests).
func NewGatewayWithAPI(ctx context.Context, api minioAPI, bucket, scheme string) (*Gateway, error) {
	if scheme == "" {
		scheme = "https"
	}
	g := &Gateway{
		api:    api,
		bucket: bucket,
		scheme: scheme,
	}

	// Ensure bucket exists
	err := g.ensureBucketExists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return g, nil
}

// ensureBucketExists creates the bucket if it doesn't exist
func (g *Gateway) ensureBucketExists(ctx context.Context) error {
	exists, err := g.api.BucketExists(ctx, g.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = g.api.MakeBucket(ctx, g.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

func (g *Gateway) CreateContainer(ctx context.Context, s model.Session, containerURL string) error {
	key, err := containerKey(containerURL)
	if err != nil {
		return err
	}

	exists, err := g.exists(ctx, key)
	if err != nil {
		return g.remote("HEAD", containerURL, err)
	}
	if exists {
		return model.ErrAlreadyExists
	}

	for _, parent := range parentKeys(key) {
		ok, err := g.exists(ctx, parent)
		if err != nil {
			return g.remote("HEAD", g.urlOf(parent), err)
		}
		if ok {
			break
		}
		if err := g.put(ctx, s, parent, nil, containerMarkerType); err != nil {
			return g.remote("PUT", g.urlOf(parent), err)
		}
	}

	if err := g.put(ctx, s, key, nil, containerMarkerType); err != nil {
		return g.remote("PUT", containerURL, err)
	}
	return nil
}

func (g *Gateway) ReadResource(ctx context.Context, _ model.Session, resourceURL string) (model.Resource, error) {
	key, err := objectKey(resourceURL)
	if err != nil {
		return model.Resource{}, err
	}

	info, err := g.api.StatObject(ctx, g.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return model.Resource{}, g.remote("HEAD", resourceURL, err)
	}
	data, err := g.read(ctx, key)
	if err != nil {
		return model.Resource{}, g.remote("GET", resourceURL, err)
	}

	return model.Resource{
		URL:          resourceURL,
		Data:         data,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

func (g *Gateway) WriteResource(ctx context.Context, s model.Session, containerURL string, data []byte, opts model.WriteOptions) (string, error) {
	ckey, err := containerKey(containerURL)
	if err != nil {
		return "", err
	}
	if err := g.requireContainer(ctx, ckey); err != nil {
		return "", err
	}

	location := containerURL + url.PathEscape(opts.Name)
	key := ckey + url.PathEscape(opts.Name)
	if !opts.Overwrite {
		exists, err := g.exists(ctx, key)
		if err != nil {
			return "", g.remote("HEAD", location, err)
		}
		if exists {
			return "", model.ErrAlreadyExists
		}
	}

	if err := g.put(ctx, s, key, data, opts.MimeType); err != nil {
		return "", g.remote("PUT", location, err)
	}
	return location, nil
}

func (g *Gateway) ListContainer(ctx context.Context, _ model.Session, containerURL string) ([]string, error) {
	key, err := containerKey(containerURL)
	if err != nil {
		return nil, err
	}
	if err := g.requireContainer(ctx, key); err != nil {
		return nil, err
	}

	children, err := g.children(ctx, key)
	if err != nil {
		return nil, g.remote("LIST", containerURL, err)
	}

	urls := make([]string, 0, len(children))
	for _, child := range children {
		urls = append(urls, g.urlOf(child))
	}
	return urls, nil
}

func (g *Gateway) ReadDataset(ctx context.Context, s model.Session, datasetURL string) (*model.Dataset, error) {
	res, err := g.ReadResource(ctx, s, datasetURL)
	if err != nil {
		return nil, err
	}
	return dataset.Decode(res.Data)
}

func (g *Gateway) CreateDataset(ctx context.Context, s model.Session, datasetURL string, ds *model.Dataset) error {
	key, err := objectKey(datasetURL)
	if err != nil {
		return err
	}
	exists, err := g.exists(ctx, key)
	if err != nil {
		return g.remote("HEAD", datasetURL, err)
	}
	if exists {
		return model.ErrAlreadyExists
	}
	return g.writeDataset(ctx, s, key, datasetURL, ds)
}

func (g *Gateway) WriteDataset(ctx context.Context, s model.Session, datasetURL string, ds *model.Dataset) error {
	key, err := objectKey(datasetURL)
	if err != nil {
		return err
	}
	return g.writeDataset(ctx, s, key, datasetURL, ds)
}

func (g *Gateway) DeleteResource(ctx context.Context, _ model.Session, resourceURL string) error {
	key, err := objectKey(resourceURL)
	if err != nil {
		return err
	}
	if _, err := g.api.StatObject(ctx, g.bucket, key, minio.StatObjectOptions{}); err != nil {
		return g.remote("HEAD", resourceURL, err)
	}

	if err := g.api.RemoveObject(ctx, g.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return g.remote("DELETE", resourceURL, err)
	}
	if err := g.api.RemoveObject(ctx, g.bucket, key+aclSuffix, minio.RemoveObjectOptions{}); err != nil {
		return g.remote("DELETE", resourceURL+aclSuffix, err)
	}
	return nil
}

func (g *Gateway) DeleteContainer(ctx context.Context, _ model.Session, containerURL string) error {
	key, err := containerKey(containerURL)
	if err != nil {
		return err
	}
	if err := g.requireContainer(ctx, key); err != nil {
		return err
	}

	children, err := g.children(ctx, key)
	if err != nil {
		return g.remote("LIST", containerURL, err)
	}
	if len(children) > 0 {
		return model.ErrNotEmpty
	}

	if err := g.api.RemoveObject(ctx, g.bucket, key+aclSuffix, minio.RemoveObjectOptions{}); err != nil {
		return g.remote("DELETE", containerURL+aclSuffix, err)
	}
	if err := g.api.RemoveObject(ctx, g.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return g.remote("DELETE", containerURL, err)
	}
	return nil
}

func (g *Gateway) ReadAccessControl(ctx context.Context, _ model.Session, resourceURL string) (*model.AccessControl, error) {
	key, err := objectKey(resourceURL)
	if err != nil {
		return nil, err
	}
	aclURL := resourceURL + aclSuffix

	if _, err := g.api.StatObject(ctx, g.bucket, key+aclSuffix, minio.StatObjectOptions{}); err != nil {
		return nil, g.remote("HEAD", aclURL, err)
	}
	data, err := g.read(ctx, key+aclSuffix)
	if err != nil {
		return nil, g.remote("GET", aclURL, err)
	}

	var acl model.AccessControl
	if err := json.Unmarshal(data, &acl); err != nil {
		return nil, fmt.Errorf("failed to decode access control %s: %w", aclURL, err)
	}
	return &acl, nil
}

func (g *Gateway) WriteAccessControl(ctx context.Context, s model.Session, resourceURL string, acl *model.AccessControl) error {
	key, err := objectKey(resourceURL)
	if err != nil {
		return err
	}
	if _, err := g.api.StatObject(ctx, g.bucket, key, minio.StatObjectOptions{}); err != nil {
		return g.remote("HEAD", resourceURL, err)
	}

	data, err := json.Marshal(acl)
	if err != nil {
		return fmt.Errorf("failed to encode access control: %w", err)
	}
	if err := g.put(ctx, s, key+aclSuffix, data, aclContentType); err != nil {
		return g.remote("PUT", resourceURL+aclSuffix, err)
	}
	return nil
}

func (g *Gateway) writeDataset(ctx context.Context, s model.Session, key, datasetURL string, ds *model.Dataset) error {
	if err := g.requireContainer(ctx, key[:strings.LastIndex(key, "/")+1]); err != nil {
		return err
	}
	if err := g.put(ctx, s, key, dataset.Encode(ds), dataset.ContentType); err != nil {
		return g.remote("PUT", datasetURL, err)
	}
	return nil
}

// children returns the keys directly inside the container key, access
// control objects excluded.
func (g *Gateway) children(ctx context.Context, key string) ([]string, error) {
	objects, err := g.api.ListObjects(ctx, g.bucket, minio.ListObjectsOptions{Prefix: key, Recursive: false})
	if err != nil {
		return nil, err
	}

	var out []string
	for _, obj := range objects {
		if obj.Key == key || strings.HasSuffix(obj.Key, aclSuffix) {
			continue
		}
		out = append(out, obj.Key)
	}
	return out, nil
}

func (g *Gateway) requireContainer(ctx context.Context, key string) error {
	exists, err := g.exists(ctx, key)
	if err != nil {
		return g.remote("HEAD", g.urlOf(key), err)
	}
	if !exists {
		return model.ErrNotFound
	}
	return nil
}

func (g *Gateway) exists(ctx context.Context, key string) (bool, error) {
	_, err := g.api.StatObject(ctx, g.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (g *Gateway) read(ctx context.Context, key string) ([]byte, error) {
	obj, err := g.api.GetObject(ctx, g.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (g *Gateway) put(ctx context.Context, s model.Session, key string, data []byte, contentType string) error {
	_, err := g.api.PutObject(ctx, g.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{modifiedByKey: s.Identity.Identifier},
	})
	return err
}

// remote maps a MinIO error onto the gateway error set.
func (g *Gateway) remote(op, resourceURL string, err error) error {
	if isNoSuchKey(err) {
		return model.ErrNotFound
	}
	var status int
	if resp := minio.ToErrorResponse(err); resp.StatusCode != 0 {
		status = resp.StatusCode
	}
	return model.NewRemoteError(op, resourceURL, status, err)
}

func (g *Gateway) urlOf(key string) string {
	return g.scheme + "://" + key
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

func objectKey(resourceURL string) (string, error) {
	u, err := url.Parse(resourceURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: invalid pod url %q", model.ErrAddressing, resourceURL)
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return u.Host + path, nil
}

func containerKey(containerURL string) (string, error) {
	if !strings.HasSuffix(containerURL, "/") {
		return "", fmt.Errorf("%w: container url %q must end with a slash", model.ErrAddressing, containerURL)
	}
	return objectKey(containerURL)
}

// parentKeys lists the container keys above key, nearest first, down to the
// pod root.
func parentKeys(key string) []string {
	var out []string
	trimmed := strings.TrimSuffix(key, "/")
	for {
		idx := strings.LastIndex(trimmed, "/")
		if idx < 0 {
			return out
		}
		trimmed = trimmed[:idx]
		out = append(out, trimmed+"/")
	}
}
