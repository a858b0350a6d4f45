package model

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/apk-analysis/droid-detective/internal/forest"
	"github.com/klauspost/compress/zstd"
)

const payloadEncoding = "gob+zstd"

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	codecErr    error
	codecOnce   sync.Once
)

// initCodec 编解码器只创建一次，EncodeAll / DecodeAll 可并发调用
func initCodec() error {
	codecOnce.Do(func() {
		zstdEncoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if codecErr != nil {
			return
		}
		zstdDecoder, codecErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return codecErr
}

func encodeClassifier(f *forest.Forest) ([]byte, error) {
	if err := initCodec(); err != nil {
		return nil, fmt.Errorf("init zstd: %w", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(f); err != nil {
		return nil, fmt.Errorf("encode classifier: %w", err)
	}
	return zstdEncoder.EncodeAll(buf.Bytes(), make([]byte, 0, buf.Len()/2)), nil
}

func decodeClassifier(payload []byte) (*forest.Forest, error) {
	if err := initCodec(); err != nil {
		return nil, fmt.Errorf("init zstd: %w", err)
	}

	raw, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, len(payload)*3))
	if err != nil {
		return nil, err
	}

	var f forest.Forest
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}
