// Package replay loads and saves a bundled replay fixture — a recorded
// rollback.InputHistory plus the snapshot it anchors to — auto-detecting
// whatever archive format the fixture arrives in. It generalizes
// romloader/loader.go's magic-byte format sniffing from "find the .sms
// file in this archive" to "find the history/anchor pair in this
// archive", so a bug report's attached replay can arrive as a zip, 7z,
// gzip, tar.*, rar, xz, lz4, or brotli file and still load.
package replay

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/gzip"
	kflate "github.com/klauspost/compress/flate"
	"github.com/nwaples/rardecode/v2"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/lockstep/kernel/rollback"
)

// historyEntryName and anchorEntryName are the two files a fixture
// archive must contain, whatever the container format.
const (
	historyEntryName = "history.json"
	anchorEntryName  = "anchor.snap"
)

// maxFixtureSize caps any single extracted entry, the same per-entry
// safety limit romloader/loader.go applies to extracted ROMs.
const maxFixtureSize = 64 * 1024 * 1024

// ErrMissingEntry is returned when an archive doesn't contain both the
// history and anchor entries.
var ErrMissingEntry = errors.New("replay: archive missing history.json or anchor.snap")

// ErrUnsupportedFormat mirrors romloader.ErrUnsupportedFormat for an
// unrecognized container.
var ErrUnsupportedFormat = errors.New("replay: unsupported archive format")

// ErrFileTooLarge mirrors romloader.ErrFileTooLarge.
var ErrFileTooLarge = errors.New("replay: entry exceeds maximum size limit")

// Fixture is a recorded rollback scenario: the confirmed input history and
// the snapshot it anchors to, with the frame that snapshot was taken at.
// Inputs are opaque `any` payloads; round-tripping through JSON preserves
// their shape (numbers decode as float64) rather than their original Go
// type, so a consumer that type-asserts a specific numeric type on replay
// must convert accordingly.
type Fixture struct {
	AnchorFrame uint32
	Anchor      []byte
	History     []rollback.FrameRange
}

type formatType int

const (
	formatUnknown formatType = iota
	formatZIP
	format7z
	formatGzip
	formatXZ
	formatLZ4
	formatBrotli
	formatRAR
)

var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06}
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{0x52, 0x61, 0x72, 0x21}
	magicXZ     = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
	magicLZ4    = []byte{0x04, 0x22, 0x4D, 0x18}
)

// detectFormat mirrors romloader/loader.go's detectFormat: magic bytes
// first, falling back to file extension (brotli has no reliable magic
// number, so it is extension-only).
func detectFormat(header []byte, path string) formatType {
	switch {
	case len(header) >= 4 && (bytes.HasPrefix(header, magicZIP) || bytes.HasPrefix(header, magicZIPEnd)):
		return formatZIP
	case len(header) >= 4 && bytes.HasPrefix(header, magicRAR):
		return formatRAR
	case len(header) >= 6 && bytes.HasPrefix(header, magic7z):
		return format7z
	case len(header) >= 2 && bytes.HasPrefix(header, magicGzip):
		return formatGzip
	case len(header) >= 6 && bytes.HasPrefix(header, magicXZ):
		return formatXZ
	case len(header) >= 4 && bytes.HasPrefix(header, magicLZ4):
		return formatLZ4
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return formatZIP
	case ".7z":
		return format7z
	case ".gz", ".tgz":
		return formatGzip
	case ".xz":
		return formatXZ
	case ".lz4":
		return formatLZ4
	case ".br":
		return formatBrotli
	case ".rar":
		return formatRAR
	}
	if strings.HasSuffix(strings.ToLower(path), ".tar.gz") {
		return formatGzip
	}
	return formatUnknown
}

// LoadFixture detects path's container format and extracts the bundled
// history/anchor pair from it.
func LoadFixture(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: open %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, 16)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("replay: read header: %w", err)
	}
	header = header[:n]
	format := detectFormat(header, path)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("replay: seek: %w", err)
	}

	var entries map[string][]byte
	switch format {
	case formatZIP:
		entries, err = extractZIP(path)
	case format7z:
		entries, err = extractSevenZip(path)
	case formatRAR:
		entries, err = extractRAR(path)
	case formatGzip:
		entries, err = extractTarStream(f, func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) })
	case formatXZ:
		entries, err = extractTarStream(f, func(r io.Reader) (io.Reader, error) { return xz.NewReader(r) })
	case formatLZ4:
		entries, err = extractTarStream(f, func(r io.Reader) (io.Reader, error) { return lz4.NewReader(r), nil })
	case formatBrotli:
		entries, err = extractTarStream(f, func(r io.Reader) (io.Reader, error) { return brotli.NewReader(r), nil })
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}

	return fixtureFromEntries(entries)
}

func fixtureFromEntries(entries map[string][]byte) (*Fixture, error) {
	historyBytes, ok := entries[historyEntryName]
	if !ok {
		return nil, ErrMissingEntry
	}
	anchor, ok := entries[anchorEntryName]
	if !ok {
		return nil, ErrMissingEntry
	}

	var doc struct {
		AnchorFrame uint32                 `json:"anchorFrame"`
		History     []rollback.FrameRange `json:"history"`
	}
	if err := json.Unmarshal(historyBytes, &doc); err != nil {
		return nil, fmt.Errorf("replay: parse history.json: %w", err)
	}

	return &Fixture{AnchorFrame: doc.AnchorFrame, Anchor: anchor, History: doc.History}, nil
}

func limitedReadAll(r io.Reader) ([]byte, error) {
	lr := io.LimitReader(r, maxFixtureSize+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if len(data) > maxFixtureSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

func wantedEntry(name string) (string, bool) {
	base := filepath.Base(name)
	if base == historyEntryName || base == anchorEntryName {
		return base, true
	}
	return "", false
}

func extractZIP(path string) (map[string][]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("replay: open zip: %w", err)
	}
	defer zr.Close()
	// klauspost/compress/flate is a drop-in faster Deflate implementation;
	// registering it here is the read-side analogue of using it as the
	// write-side compressor in SaveFixture.
	zr.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return kflate.NewReader(r)
	})

	out := make(map[string][]byte)
	for _, zf := range zr.File {
		name, ok := wantedEntry(zf.Name)
		if !ok {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("replay: open zip entry %s: %w", zf.Name, err)
		}
		data, err := limitedReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("replay: read zip entry %s: %w", zf.Name, err)
		}
		out[name] = data
	}
	return out, nil
}

func extractSevenZip(path string) (map[string][]byte, error) {
	sr, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("replay: open 7z: %w", err)
	}
	defer sr.Close()

	out := make(map[string][]byte)
	for _, zf := range sr.File {
		name, ok := wantedEntry(zf.Name)
		if !ok {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("replay: open 7z entry %s: %w", zf.Name, err)
		}
		data, err := limitedReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("replay: read 7z entry %s: %w", zf.Name, err)
		}
		out[name] = data
	}
	return out, nil
}

func extractRAR(path string) (map[string][]byte, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("replay: open rar: %w", err)
	}
	defer r.Close()

	out := make(map[string][]byte)
	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("replay: read rar entry: %w", err)
		}
		if header.IsDir {
			continue
		}
		name, ok := wantedEntry(header.Name)
		if !ok {
			continue
		}
		data, err := limitedReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("replay: read rar entry %s: %w", header.Name, err)
		}
		out[name] = data
	}
	return out, nil
}

// extractTarStream decompresses a single-stream archive (gzip/xz/lz4/
// brotli) and reads the result as a tar, the generalization of the
// teacher's ".tar.gz" handling to every single-stream codec in the stack.
func extractTarStream(f *os.File, newDecoder func(io.Reader) (io.Reader, error)) (map[string][]byte, error) {
	dec, err := newDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("replay: open compressed stream: %w", err)
	}
	if c, ok := dec.(io.Closer); ok {
		defer c.Close()
	}

	tr := tar.NewReader(dec)
	out := make(map[string][]byte)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("replay: read tar entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name, ok := wantedEntry(hdr.Name)
		if !ok {
			continue
		}
		data, err := limitedReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("replay: read tar entry %s: %w", hdr.Name, err)
		}
		out[name] = data
	}
	return out, nil
}

// SaveFixture writes fixture as a zip archive at path, using
// klauspost/compress/flate as the Deflate implementation.
func SaveFixture(path string, fixture *Fixture) error {
	doc := struct {
		AnchorFrame uint32                `json:"anchorFrame"`
		History     []rollback.FrameRange `json:"history"`
	}{AnchorFrame: fixture.AnchorFrame, History: fixture.History}
	historyBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("replay: marshal history: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("replay: create %s: %w", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return kflate.NewWriter(w, kflate.BestSpeed)
	})

	if err := writeZipEntry(zw, historyEntryName, historyBytes); err != nil {
		return err
	}
	if err := writeZipEntry(zw, anchorEntryName, fixture.Anchor); err != nil {
		return err
	}
	return zw.Close()
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("replay: create zip entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("replay: write zip entry %s: %w", name, err)
	}
	return nil
}
