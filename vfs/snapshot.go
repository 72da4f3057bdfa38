package vfs

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"sort"

	"github.com/klauspost/compress/zstd"
)

// snapshotMagic identifies an agent-sandbox snapshot blob. snapshotVersion
// allows the wire format to evolve; decoding rejects unknown versions
// rather than guessing.
var snapshotMagic = [4]byte{'A', 'S', 'B', 'X'}

const snapshotVersion uint8 = 1

// gobPair is the wire representation used by the generic (backend-agnostic)
// encoder: one (path, entry) pair, with the FileEntry embedded as-is.
type gobPair struct {
	Path  string
	Entry FileEntry
}

// serialize produces the versioned, zstd-compressed snapshot blob for the
// backend. Backends implementing [SerializableStorage] are asked for their
// own native encoding first; everything else falls back to a generic
// sorted-pairs gob encoding of AllPairs.
func serialize(backend Storage) ([]byte, error) {
	var payload []byte

	if sb, ok := backend.(SerializableStorage); ok {
		p, err := sb.Serialize()
		if err != nil {
			return nil, fmt.Errorf("vfs: backend serialize: %w", err)
		}

		payload = p
	} else {
		p, err := genericEncode(backend.AllPairs())
		if err != nil {
			return nil, fmt.Errorf("vfs: generic encode: %w", err)
		}

		payload = p
	}

	compressed, err := zstdCompress(payload)
	if err != nil {
		return nil, fmt.Errorf("vfs: compress snapshot: %w", err)
	}

	buf := bytes.NewBuffer(make([]byte, 0, len(compressed)+5))
	buf.Write(snapshotMagic[:])
	buf.WriteByte(byte(snapshotVersion))
	buf.Write(compressed)

	return buf.Bytes(), nil
}

// restore decodes a blob produced by serialize and bulk-loads it into
// backend, clearing any existing content first.
func restore(backend Storage, blob []byte) error {
	if len(blob) < 5 {
		return fmt.Errorf("vfs: snapshot blob too short")
	}

	var magic [4]byte

	copy(magic[:], blob[:4])

	if magic != snapshotMagic {
		return fmt.Errorf("vfs: snapshot blob has wrong magic %q", magic)
	}

	if version := blob[4]; version != snapshotVersion {
		return fmt.Errorf("vfs: unsupported snapshot version %d", version)
	}

	payload, err := zstdDecompress(blob[5:])
	if err != nil {
		return fmt.Errorf("vfs: decompress snapshot: %w", err)
	}

	backend.Clear()

	if sb, ok := backend.(SerializableStorage); ok {
		if err := sb.Deserialize(payload); err != nil {
			return fmt.Errorf("vfs: backend deserialize: %w", err)
		}

		return nil
	}

	pairs, err := genericDecode(payload)
	if err != nil {
		return fmt.Errorf("vfs: generic decode: %w", err)
	}

	backend.SetMany(pairs)

	return nil
}

// genericEncode gob-encodes a deterministically sorted slice of pairs so
// that two serializations of the same keyspace produce identical bytes.
func genericEncode(pairs map[string]FileEntry) ([]byte, error) {
	list := make([]gobPair, 0, len(pairs))
	for p, e := range pairs {
		list = append(list, gobPair{Path: p, Entry: e})
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(list); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func genericDecode(data []byte) (map[string]FileEntry, error) {
	var list []gobPair
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&list); err != nil {
		return nil, err
	}

	pairs := make(map[string]FileEntry, len(list))
	for _, p := range list {
		pairs[p.Path] = p.Entry
	}

	return pairs, nil
}

func zstdCompress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()

	return enc.EncodeAll(data, make([]byte, 0, len(data))), nil
}

func zstdDecompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return dec.DecodeAll(data, nil)
}

// SnapshotSizeHeader returns the size in bytes of a snapshot blob's fixed
// magic+version prefix, so a caller holding only len(blob) (e.g. a REST
// handler reporting size in a response) can derive the compressed
// payload size without decoding the blob.
func SnapshotSizeHeader() int {
	return binary.Size(snapshotMagic) + 1
}
