// Chunk walking adapted from https://github.com/parsiya/Go-Security/blob/master/png-tests/png-chunk-extraction.go

package png_info

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"sort"
	"strconv"
	"strings"
)

// 89 50 4E 47 0D 0A 1A 0A
var pngHeader = "\x89\x50\x4E\x47\x0D\x0A\x1A\x0A"

// stageKeyword prefixes the text keyword of every embedded stage: stage1, stage2, ...
const stageKeyword = "stage"

const conceptKeyword = "concept"

// Each chunk starts with a uint32 length (big endian), then 4 byte name,
// then data and finally the CRC32 of the chunk type and data.
type chunk struct {
	CType string
	Data  []byte
}

func readChunks(data []byte) ([]*chunk, error) {
	r := bytes.NewReader(data)

	header := make([]byte, len(pngHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	if string(header) != pngHeader {
		return nil, errors.New("wrong PNG header")
	}

	var chunks []*chunk

	buf := make([]byte, 4)

	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if errors.Is(err, io.EOF) {
				return chunks, nil
			}

			return nil, err
		}

		length := binary.BigEndian.Uint32(buf)
		if int64(length) > int64(r.Len()) {
			return nil, fmt.Errorf("chunk length %d exceeds remaining data", length)
		}

		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}

		c := &chunk{CType: string(buf)}

		c.Data = make([]byte, length)
		if _, err := io.ReadFull(r, c.Data); err != nil {
			return nil, err
		}

		// We don't really care about checking the hash.
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}

		chunks = append(chunks, c)

		if c.CType == "IEND" {
			return chunks, nil
		}
	}
}

func writeChunk(w *bytes.Buffer, c *chunk) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(c.Data)))
	w.Write(length[:])

	crc := crc32.NewIEEE()
	crc.Write([]byte(c.CType))
	crc.Write(c.Data)

	w.WriteString(c.CType)
	w.Write(c.Data)

	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	w.Write(sum[:])
}

// iTXt layout: keyword, NUL, compression flag, compression method,
// language tag, NUL, translated keyword, NUL, UTF-8 text.
func textChunk(keyword, text string) *chunk {
	return &chunk{CType: "iTXt", Data: []byte(keyword + "\x00\x00\x00\x00\x00" + text)}
}

// Stage is one embedded prompt. Number is the 1-based stage position in the
// evolution, so gaps are kept when some stages have no image.
type Stage struct {
	Number int
	Text   string
}

// EmbedStages returns a copy of the PNG with the concept and each stage
// stored as UTF-8 iTXt chunks right before IEND.
func EmbedStages(pngData []byte, concept string, stages []Stage) ([]byte, error) {
	chunks, err := readChunks(pngData)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 || chunks[len(chunks)-1].CType != "IEND" {
		return nil, errors.New("missing IEND chunk")
	}

	out := new(bytes.Buffer)
	out.WriteString(pngHeader)

	for _, c := range chunks[:len(chunks)-1] {
		writeChunk(out, c)
	}

	if concept != "" {
		writeChunk(out, textChunk(conceptKeyword, concept))
	}

	for _, stage := range stages {
		if stage.Number <= 0 {
			return nil, fmt.Errorf("invalid stage number %d", stage.Number)
		}

		writeChunk(out, textChunk(stageKeyword+strconv.Itoa(stage.Number), stage.Text))
	}

	writeChunk(out, chunks[len(chunks)-1])

	return out.Bytes(), nil
}

type StageInfo struct {
	Concept string
	Stages  []Stage
}

func latin1ToUTF8(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}

	return string(runes)
}

// decodeText returns the keyword and text of a tEXt or iTXt chunk.
func decodeText(c *chunk) (string, string, bool) {
	keyword, rest, found := bytes.Cut(c.Data, []byte{0})
	if !found {
		return "", "", false
	}

	if c.CType == "tEXt" {
		return latin1ToUTF8(keyword), latin1ToUTF8(rest), true
	}

	if len(rest) < 2 {
		return "", "", false
	}

	compressed, rest := rest[0] == 1, rest[2:]

	// language tag, then translated keyword
	for range 2 {
		_, rest, found = bytes.Cut(rest, []byte{0})
		if !found {
			return "", "", false
		}
	}

	if !compressed {
		return string(keyword), string(rest), true
	}

	zr, err := zlib.NewReader(bytes.NewReader(rest))
	if err != nil {
		return "", "", false
	}
	defer zr.Close()

	text, err := io.ReadAll(zr)
	if err != nil {
		return "", "", false
	}

	return string(keyword), string(text), true
}

// ExtractStages reads back what EmbedStages wrote. Stages come back in
// stage-number order. Plain tEXt chunks are read as Latin-1.
func ExtractStages(pngData []byte) (*StageInfo, error) {
	chunks, err := readChunks(pngData)
	if err != nil {
		return nil, err
	}

	info := &StageInfo{}

	for _, c := range chunks {
		if c.CType != "tEXt" && c.CType != "iTXt" {
			continue
		}

		keyword, text, ok := decodeText(c)
		if !ok {
			continue
		}

		if keyword == conceptKeyword {
			info.Concept = text

			continue
		}

		number, ok := strings.CutPrefix(keyword, stageKeyword)
		if !ok {
			continue
		}

		n, convErr := strconv.Atoi(number)
		if convErr != nil || n <= 0 {
			continue
		}

		info.Stages = append(info.Stages, Stage{Number: n, Text: text})
	}

	sort.SliceStable(info.Stages, func(i, j int) bool { return info.Stages[i].Number < info.Stages[j].Number })

	return info, nil
}
