package link

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"earshot/store"
)

type BackupOptions struct {
	// Either ConnectionString or AccountURL must be set. With AccountURL the
	// default Azure credential chain is used (managed identity on the
	// gateway, az login on a dev box).
	ConnectionString string
	AccountURL       string
	Container        string
	Device           string
}

// blobAPI is the part of the azblob client Backup uses.
type blobAPI interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

type containerAPI interface {
	GetProperties(ctx context.Context, o *container.GetPropertiesOptions) (container.GetPropertiesResponse, error)
}

// Backup uploads batches of records to Azure Blob Storage as zstd-compressed
// newline-delimited JSON, one blob per batch.
type Backup struct {
	blobs     blobAPI
	container containerAPI
	opts      BackupOptions
	enc       *zstd.Encoder
	now       func() time.Time
}

func NewBackup(o BackupOptions) (*Backup, error) {
	if o.Container == "" {
		return nil, errors.New("backup: container not set")
	}
	var client *azblob.Client
	var err error
	switch {
	case o.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(o.ConnectionString, nil)
	case o.AccountURL != "":
		cred, cerr := azidentity.NewDefaultAzureCredential(nil)
		if cerr != nil {
			return nil, fmt.Errorf("backup: credential: %w", cerr)
		}
		client, err = azblob.NewClient(o.AccountURL, cred, nil)
	default:
		return nil, errors.New("backup: neither connection string nor account url set")
	}
	if err != nil {
		return nil, fmt.Errorf("backup: client: %w", err)
	}
	return newBackup(client, client.ServiceClient().NewContainerClient(o.Container), o)
}

func newBackup(blobs blobAPI, c containerAPI, o BackupOptions) (*Backup, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("backup: zstd: %w", err)
	}
	return &Backup{blobs: blobs, container: c, opts: o, enc: enc, now: time.Now}, nil
}

func (b *Backup) IsEnabled() bool { return true }

func (b *Backup) IsConnected(ctx context.Context) bool {
	_, err := b.container.GetProperties(ctx, nil)
	return err == nil
}

// BlobName returns where a batch uploaded at t is stored.
func (b *Backup) BlobName(t time.Time) string {
	t = t.UTC()
	return path.Join(b.opts.Device, t.Format("2006/01/02"),
		t.Format("150405")+"-"+uuid.NewString()+".ndjson.zst")
}

func (b *Backup) encode(records []store.Record) ([]byte, error) {
	var buf bytes.Buffer
	e := json.NewEncoder(&buf)
	for _, r := range records {
		if err := e.Encode(r); err != nil {
			return nil, err
		}
	}
	return b.enc.EncodeAll(buf.Bytes(), nil), nil
}

func (b *Backup) Backup(ctx context.Context, records []store.Record) error {
	if len(records) == 0 {
		return nil
	}
	data, err := b.encode(records)
	if err != nil {
		return fmt.Errorf("backup: encode: %w", err)
	}
	count := strconv.Itoa(len(records))
	device := b.opts.Device
	_, err = b.blobs.UploadBuffer(ctx, b.opts.Container, b.BlobName(b.now()), data, &azblob.UploadBufferOptions{
		Metadata: map[string]*string{
			"records": &count,
			"device":  &device,
		},
	})
	if err != nil {
		return fmt.Errorf("backup: upload: %w", err)
	}
	return nil
}

func (b *Backup) Close() error {
	return b.enc.Close()
}
