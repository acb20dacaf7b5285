package flipbook

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gogpu/flipbook/internal/mipmap"
	"github.com/gogpu/gputypes"
	"github.com/klauspost/compress/zstd"
	bst "github.com/mixcode/binarystruct"
)

// AssetExt is the file extension of saved texture arrays.
const AssetExt = ".flipbook"

const (
	assetMagic   = "FLIPBOOK"
	assetVersion = 1

	// Upper bounds checked before allocating while loading.
	maxAssetSide   = 1 << 16
	maxAssetLayers = 1 << 16
	maxLabelLen    = 1 << 10

	// maxAssetBytes caps the decoded pixel data of one asset, all layers
	// and mip levels included.
	maxAssetBytes = 1 << 30
)

// ErrBadAsset is returned when a saved texture array is not in the
// expected format.
var ErrBadAsset = errors.New("flipbook: bad asset")

// assetHeader is the fixed-size start of an asset, after decompression.
// It is followed by the label, one uint32 delay in milliseconds per layer,
// the layers and then, when MipLevels > 1, the mip levels of each layer.
type assetHeader struct {
	Magic       [8]byte
	Version     uint16
	Format      uint32
	Width       uint32
	Height      uint32
	Layers      uint32
	MipLevels   uint32
	RepeatCount uint32
	HasAlpha    uint8
	LabelLen    uint16
}

// WriteAsset writes the texture array to w as a zstd-compressed asset.
func (a *TextureArray) WriteAsset(w io.Writer) error {
	if len(a.Label) > maxLabelLen {
		return fmt.Errorf("flipbook: label is %d bytes, limit %d", len(a.Label), maxLabelLen)
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("flipbook: zstd writer: %w", err)
	}

	if err := a.writeAssetBody(zw); err != nil {
		_ = zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flipbook: write asset: %w", err)
	}
	return nil
}

func (a *TextureArray) writeAssetBody(w io.Writer) error {
	h := assetHeader{
		Version:     assetVersion,
		Format:      uint32(a.Format),
		Width:       a.Size.Width,
		Height:      a.Size.Height,
		Layers:      uint32(len(a.Layers)), //nolint:gosec // bounded by the frame count
		MipLevels:   max(a.MipLevelCount, 1),
		RepeatCount: uint32(a.RepeatCount), //nolint:gosec // 16-bit loop count
		LabelLen:    uint16(len(a.Label)),  //nolint:gosec // checked against maxLabelLen
	}
	copy(h.Magic[:], assetMagic)
	if a.HasAlpha {
		h.HasAlpha = 1
	}
	if h.MipLevels > 1 && len(a.Mips) != len(a.Layers) {
		return fmt.Errorf("flipbook: %d mip levels but %d mip chains", h.MipLevels, len(a.Mips))
	}

	if _, err := bst.Write(w, bst.LittleEndian, &h); err != nil {
		return fmt.Errorf("flipbook: write asset header: %w", err)
	}
	if _, err := io.WriteString(w, a.Label); err != nil {
		return fmt.Errorf("flipbook: write asset: %w", err)
	}

	delays := make([]byte, 0, 4*len(a.Layers))
	for i := range a.Layers {
		var ms int64
		if i < len(a.Delays) {
			ms = a.Delays[i].Milliseconds()
		}
		delays = binary.LittleEndian.AppendUint32(delays, uint32(ms)) //nolint:gosec // GIF delays fit in 20 bits
	}
	if _, err := w.Write(delays); err != nil {
		return fmt.Errorf("flipbook: write asset: %w", err)
	}

	for _, layer := range a.Layers {
		if _, err := w.Write(layer); err != nil {
			return fmt.Errorf("flipbook: write asset: %w", err)
		}
	}
	if h.MipLevels > 1 {
		for _, chain := range a.Mips {
			for _, level := range chain {
				if _, err := w.Write(level); err != nil {
					return fmt.Errorf("flipbook: write asset: %w", err)
				}
			}
		}
	}
	return nil
}

// ReadAsset reads a texture array written by WriteAsset.
func ReadAsset(r io.Reader) (*TextureArray, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderMaxMemory(maxAssetBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadAsset, err)
	}
	defer zr.Close()

	var h assetHeader
	if _, err := bst.Read(zr, bst.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrBadAsset, err)
	}
	switch {
	case string(h.Magic[:]) != assetMagic:
		return nil, fmt.Errorf("%w: magic %q", ErrBadAsset, h.Magic[:])
	case h.Version != assetVersion:
		return nil, fmt.Errorf("%w: version %d", ErrBadAsset, h.Version)
	case h.Width == 0 || h.Height == 0 || h.Width > maxAssetSide || h.Height > maxAssetSide:
		return nil, fmt.Errorf("%w: size %dx%d", ErrBadAsset, h.Width, h.Height)
	case h.Layers == 0 || h.Layers > maxAssetLayers:
		return nil, fmt.Errorf("%w: %d layers", ErrBadAsset, h.Layers)
	case h.LabelLen > maxLabelLen:
		return nil, fmt.Errorf("%w: label length %d", ErrBadAsset, h.LabelLen)
	}
	format := gputypes.TextureFormat(h.Format)
	if !supportedFormat(format) {
		return nil, fmt.Errorf("%w: %w: %v", ErrBadAsset, ErrUnsupportedFormat, format)
	}
	w, ht, n := int(h.Width), int(h.Height), int(h.Layers)
	if levels := mipmap.LevelCount(w, ht); h.MipLevels == 0 || int(h.MipLevels) > levels {
		return nil, fmt.Errorf("%w: %d mip levels for %dx%d", ErrBadAsset, h.MipLevels, w, ht)
	}
	var chain int64
	for l := range int(h.MipLevels) {
		mw, mh := mipmap.LevelSize(w, ht, l)
		chain += 4 * int64(mw) * int64(mh)
	}
	if total := chain * int64(n); total > maxAssetBytes {
		return nil, fmt.Errorf("%w: %d bytes of pixel data, limit %d", ErrBadAsset, total, maxAssetBytes)
	}

	label := make([]byte, h.LabelLen)
	if err := readAssetBytes(zr, label); err != nil {
		return nil, err
	}
	delays := make([]byte, 4*n)
	if err := readAssetBytes(zr, delays); err != nil {
		return nil, err
	}

	arr := &TextureArray{
		Label: string(label),
		Size: gputypes.Extent3D{
			Width:              h.Width,
			Height:             h.Height,
			DepthOrArrayLayers: h.Layers,
		},
		Format:        format,
		Dimension:     gputypes.TextureDimension2D,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		MipLevelCount: h.MipLevels,
		Layers:        make([][]byte, n),
		Delays:        make([]time.Duration, n),
		RepeatCount:   int(h.RepeatCount),
		HasAlpha:      h.HasAlpha != 0,
	}
	for i := range n {
		arr.Delays[i] = time.Duration(binary.LittleEndian.Uint32(delays[4*i:])) * time.Millisecond
		if arr.Layers[i], err = readAssetChunk(zr, 4*w*ht); err != nil {
			return nil, err
		}
	}
	if h.MipLevels > 1 {
		arr.Mips = make([][][]byte, n)
		for i := range n {
			arr.Mips[i] = make([][]byte, h.MipLevels-1)
			for l := range arr.Mips[i] {
				mw, mh := mipmap.LevelSize(w, ht, l+1)
				if arr.Mips[i][l], err = readAssetChunk(zr, 4*mw*mh); err != nil {
					return nil, err
				}
			}
		}
	}
	return arr, nil
}

func readAssetBytes(r io.Reader, p []byte) error {
	if _, err := io.ReadFull(r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: truncated", ErrBadAsset)
		}
		return fmt.Errorf("flipbook: read asset: %w", err)
	}
	return nil
}

// readAssetChunk reads exactly n bytes. The buffer grows with the data
// actually present, so a header promising more than the stream holds fails
// without allocating the promised size.
func readAssetChunk(r io.Reader, n int) ([]byte, error) {
	p, err := io.ReadAll(io.LimitReader(r, int64(n)))
	if err != nil {
		return nil, fmt.Errorf("flipbook: read asset: %w", err)
	}
	if len(p) != n {
		return nil, fmt.Errorf("%w: truncated", ErrBadAsset)
	}
	return p, nil
}

// SaveAsset writes the texture array to the file at path.
func (a *TextureArray) SaveAsset(path string) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("flipbook: create file: %w", err)
	}

	if err := a.WriteAsset(f); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// LoadAsset reads a texture array from the file at path.
func LoadAsset(path string) (*TextureArray, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("flipbook: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadAsset(f)
}
