package archive

import (
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/peterbourgon/diskv/v3"
)

// BlobStore keeps media payloads on disk, zstd-compressed and fanned
// out into two-character subdirectories so no single directory grows
// unbounded.
type BlobStore struct {
	dv  *diskv.Diskv
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewBlobStore opens a blob store rooted at dir
func NewBlobStore(dir string) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("init blob encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("init blob decoder: %w", err)
	}
	dv := diskv.New(diskv.Options{
		BasePath:     dir,
		Transform:    blobTransform,
		CacheSizeMax: 8 << 20,
	})
	return &BlobStore{dv: dv, enc: enc, dec: dec}, nil
}

// blobTransform shards keys by their first two characters
func blobTransform(key string) []string {
	if len(key) < 2 {
		return []string{}
	}
	return []string{key[:2]}
}

// Put stores a payload under key, replacing any previous value
func (b *BlobStore) Put(key string, payload []byte) error {
	compressed := b.enc.EncodeAll(payload, nil)
	if err := b.dv.Write(key, compressed); err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	return nil
}

// Get returns the payload stored under key
func (b *BlobStore) Get(key string) ([]byte, error) {
	compressed, err := b.dv.Read(key)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}
	payload, err := b.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress blob %s: %w", key, err)
	}
	return payload, nil
}

// Has reports whether a payload exists under key
func (b *BlobStore) Has(key string) bool {
	return b.dv.Has(key)
}

// Delete removes the payload stored under key
func (b *BlobStore) Delete(key string) error {
	if err := b.dv.Erase(key); err != nil {
		return fmt.Errorf("erase blob %s: %w", key, err)
	}
	return nil
}
