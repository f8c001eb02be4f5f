// Package backup uploads rotated record archives to S3-compatible
// storage.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/andybalholm/brotli"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/rowlog/termtools/atomicfile"
)

type Config struct {
	Access       string
	Secret       string
	Bucket       string
	Endpoint     string
	Region       string
	RequestTrace io.Writer
}

type Client struct {
	Client *minio.Client
	Bucket string

	config *Config
}

func New(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("must provide config")
	}
	c := config
	if c.Access == "" || c.Secret == "" || c.Bucket == "" || c.Endpoint == "" {
		return nil, errors.New("must provide all fields in config")
	}

	mc, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Access, c.Secret, ""),
		Region: c.Region,
		Secure: true,
	})
	if err != nil {
		return nil, err
	}
	if c.RequestTrace != nil {
		mc.TraceOn(c.RequestTrace)
	}
	found, err := mc.BucketExists(ctx(), c.Bucket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bucket '%s' doesn't exist", c.Bucket)
	}

	return &Client{
		Client: mc,
		Bucket: c.Bucket,
		config: c,
	}, nil
}

func (c *Client) Exists(remotePath string) bool {
	_, err := c.Client.StatObject(ctx(), c.Bucket, remotePath, minio.StatObjectOptions{})
	return err == nil
}

// UploadFile uploads a local file, typically an archive produced by
// archive.Rotate, detecting content type from the extension
func (c *Client) UploadFile(remotePath string, localPath string) (minio.UploadInfo, error) {
	contentType := mime.TypeByExtension(filepath.Ext(remotePath))
	opts := minio.PutObjectOptions{
		ContentType: contentType,
	}
	return c.Client.FPutObject(ctx(), c.Bucket, remotePath, localPath, opts)
}

func (c *Client) UploadData(remotePath string, data []byte) (minio.UploadInfo, error) {
	contentType := mime.TypeByExtension(filepath.Ext(remotePath))
	opts := minio.PutObjectOptions{
		ContentType: contentType,
	}
	r := bytes.NewReader(data)
	return c.Client.PutObject(ctx(), c.Bucket, remotePath, r, int64(len(data)), opts)
}

// UploadFileBrotliCompressed is UploadFile for files not already
// compressed, e.g. the live record file itself
func (c *Client) UploadFileBrotliCompressed(remotePath string, localPath string) (minio.UploadInfo, error) {
	d, err := brotliCompress(localPath)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	return c.UploadData(remotePath, d)
}

// UploadDir uploads every file in dirLocal under dirRemote, flat
func (c *Client) UploadDir(dirRemote string, dirLocal string) error {
	files, err := os.ReadDir(dirLocal)
	if err != nil {
		return err
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		fname := f.Name()
		pathLocal := filepath.Join(dirLocal, fname)
		pathRemote := path.Join(dirRemote, fname)
		_, err := c.UploadFile(pathRemote, pathLocal)
		if err != nil {
			return fmt.Errorf("upload of '%s' as '%s' failed with '%s'", pathLocal, pathRemote, err)
		}
	}
	return nil
}

func (c *Client) ListObjects(prefix string) <-chan minio.ObjectInfo {
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}
	return c.Client.ListObjects(ctx(), c.Bucket, opts)
}

func (c *Client) Remove(remotePath string) error {
	return c.Client.RemoveObject(ctx(), c.Bucket, remotePath, minio.RemoveObjectOptions{})
}

// DownloadFileAtomically restores an archive: the local file appears
// fully written or not at all
func (c *Client) DownloadFileAtomically(dstPath string, remotePath string) error {
	obj, err := c.Client.GetObject(ctx(), c.Bucket, remotePath, minio.GetObjectOptions{})
	if err != nil {
		return err
	}
	defer obj.Close()

	err = os.MkdirAll(filepath.Dir(dstPath), 0755)
	if err != nil {
		return err
	}

	f, err := atomicfile.New(dstPath)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()
	_, err = io.Copy(f, obj)
	if err != nil {
		return err
	}
	return f.Close()
}

func brotliCompress(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.BestCompression)
	_, err = io.Copy(w, f)
	if err != nil {
		return nil, err
	}
	err = w.Close()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ctx() context.Context {
	return context.Background()
}
