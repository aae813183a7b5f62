package metadata

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// maxChunkLen is the largest chunk length the PNG format allows.
const maxChunkLen = 1<<31 - 1

// TextChunk is a keyword/text pair stored in a PNG file.
type TextChunk struct {
	Keyword string
	Text    string
}

// latin1 reports whether s can be stored in a tEXt chunk unchanged.
func latin1(s string) bool {
	for _, r := range s {
		if r > 0xff {
			return false
		}
	}
	return true
}

func writeChunk(w *bytes.Buffer, typ string, data []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(data)))
	w.Write(n[:])

	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	w.WriteString(typ)
	w.Write(data)
	binary.BigEndian.PutUint32(n[:], crc.Sum32())
	w.Write(n[:])
}

// encodeText returns the chunk type and payload for t. Latin-1 text uses tEXt,
// everything else an uncompressed iTXt.
func encodeText(t TextChunk) (string, []byte) {
	var b bytes.Buffer
	b.WriteString(t.Keyword)
	b.WriteByte(0)

	if latin1(t.Text) {
		for _, r := range t.Text {
			b.WriteByte(byte(r))
		}
		return "tEXt", b.Bytes()
	}

	// compression flag, compression method, empty language tag, empty translated keyword
	b.Write([]byte{0, 0, 0, 0})
	b.WriteString(t.Text)
	return "iTXt", b.Bytes()
}

// InsertTextChunks returns a copy of the PNG in src with chunks added right after IHDR.
func InsertTextChunks(src []byte, chunks []TextChunk) ([]byte, error) {
	if !bytes.HasPrefix(src, pngSignature) {
		return nil, errors.New("not a PNG file")
	}

	// signature + IHDR (length, type, 13 bytes of data, crc)
	ihdrEnd := len(pngSignature) + 4 + 4 + 13 + 4
	if len(src) < ihdrEnd || string(src[12:16]) != "IHDR" {
		return nil, errors.New("PNG does not start with IHDR")
	}

	var out bytes.Buffer
	out.Write(src[:ihdrEnd])
	for _, c := range chunks {
		if c.Keyword == "" || len(c.Keyword) > 79 {
			return nil, fmt.Errorf("invalid PNG text keyword %q", c.Keyword)
		}
		typ, data := encodeText(c)
		writeChunk(&out, typ, data)
	}
	out.Write(src[ihdrEnd:])
	return out.Bytes(), nil
}

// ReadTextChunks returns the tEXt, zTXt and iTXt chunks of a PNG stream in file order.
func ReadTextChunks(r io.Reader) ([]TextChunk, error) {
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, fmt.Errorf("read signature: %w", err)
	}
	if !bytes.Equal(sig, pngSignature) {
		return nil, errors.New("not a PNG file")
	}

	var out []TextChunk
	var hdr [8]byte
	for {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, fmt.Errorf("read chunk header: %w", err)
		}
		n := int64(binary.BigEndian.Uint32(hdr[:4]))
		typ := string(hdr[4:])
		if n > maxChunkLen {
			return nil, fmt.Errorf("%s chunk length %d exceeds %d", typ, n, maxChunkLen)
		}

		switch typ {
		case "tEXt", "zTXt", "iTXt":
			// the buffer grows with what is actually read, so a lying length cannot force a huge allocation
			var buf bytes.Buffer
			if _, err := io.CopyN(&buf, r, n+4); err != nil {
				return nil, fmt.Errorf("read %s chunk: %w", typ, err)
			}
			t, err := decodeText(typ, buf.Bytes()[:n])
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", typ, err)
			}
			out = append(out, t)
		case "IEND":
			return out, nil
		default:
			if _, err := io.CopyN(io.Discard, r, n+4); err != nil {
				return nil, fmt.Errorf("read %s chunk: %w", typ, err)
			}
		}
	}
}

func decodeText(typ string, data []byte) (TextChunk, error) {
	k, rest, ok := bytes.Cut(data, []byte{0})
	if !ok {
		return TextChunk{}, errors.New("missing keyword separator")
	}
	t := TextChunk{Keyword: string(k)}

	switch typ {
	case "tEXt":
		t.Text = fromLatin1(rest)
	case "zTXt":
		if len(rest) < 1 {
			return t, errors.New("short zTXt")
		}
		bs, err := inflate(rest[1:])
		if err != nil {
			return t, err
		}
		t.Text = fromLatin1(bs)
	case "iTXt":
		if len(rest) < 2 {
			return t, errors.New("short iTXt")
		}
		compressed := rest[0] == 1
		rest = rest[2:]
		// language tag, then translated keyword
		for i := 0; i < 2; i++ {
			_, after, ok := bytes.Cut(rest, []byte{0})
			if !ok {
				return t, errors.New("truncated iTXt")
			}
			rest = after
		}
		if compressed {
			bs, err := inflate(rest)
			if err != nil {
				return t, err
			}
			rest = bs
		}
		t.Text = string(rest)
	}
	return t, nil
}

func fromLatin1(bs []byte) string {
	rs := make([]rune, len(bs))
	for i, b := range bs {
		rs[i] = rune(b)
	}
	return string(rs)
}

func inflate(bs []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(bs))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
