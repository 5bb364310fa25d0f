package png_info

import (
	"bytes"
	"compress/zlib"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 3, 3))))

	return buf.Bytes()
}

// withChunk inserts c right before IEND.
func withChunk(t *testing.T, pngData []byte, c *chunk) []byte {
	t.Helper()

	chunks, err := readChunks(pngData)
	require.NoError(t, err)

	out := new(bytes.Buffer)
	out.WriteString(pngHeader)

	for _, existing := range chunks[:len(chunks)-1] {
		writeChunk(out, existing)
	}

	writeChunk(out, c)
	writeChunk(out, chunks[len(chunks)-1])

	return out.Bytes()
}

func TestEmbedAndExtractStages(t *testing.T) {
	stages := []Stage{
		{Number: 1, Text: "a cat"},
		{Number: 2, Text: "a cat on a couch"},
		{Number: 3, Text: "moody cat"},
	}

	out, err := EmbedStages(testPNG(t), "a cat", stages)
	require.NoError(t, err)

	// still a valid PNG
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())

	info, err := ExtractStages(out)
	require.NoError(t, err)

	assert.Equal(t, "a cat", info.Concept)
	assert.Equal(t, stages, info.Stages)
}

func TestEmbedStagesKeepsStageNumbers(t *testing.T) {
	out, err := EmbedStages(testPNG(t), "a cat", []Stage{
		{Number: 1, Text: "first"},
		{Number: 3, Text: "third"},
	})
	require.NoError(t, err)

	assert.True(t, bytes.Contains(out, []byte("stage3\x00")))
	assert.False(t, bytes.Contains(out, []byte("stage2\x00")))

	info, err := ExtractStages(out)
	require.NoError(t, err)
	assert.Equal(t, []Stage{{Number: 1, Text: "first"}, {Number: 3, Text: "third"}}, info.Stages)
}

func TestEmbedStagesStoresUTF8(t *testing.T) {
	stages := []Stage{{Number: 1, Text: "猫, café lighting ✨"}}

	out, err := EmbedStages(testPNG(t), "ネコ", stages)
	require.NoError(t, err)

	assert.True(t, bytes.Contains(out, []byte("iTXt")))
	assert.False(t, bytes.Contains(out, []byte("tEXt")))

	info, err := ExtractStages(out)
	require.NoError(t, err)
	assert.Equal(t, "ネコ", info.Concept)
	assert.Equal(t, stages, info.Stages)
}

func TestExtractStagesReadsOtherTextChunks(t *testing.T) {
	t.Run("latin-1 tEXt", func(t *testing.T) {
		out := withChunk(t, testPNG(t), &chunk{CType: "tEXt", Data: []byte("stage1\x00caf\xe9")})

		info, err := ExtractStages(out)
		require.NoError(t, err)
		assert.Equal(t, []Stage{{Number: 1, Text: "café"}}, info.Stages)
	})

	t.Run("compressed iTXt", func(t *testing.T) {
		compressed := new(bytes.Buffer)
		zw := zlib.NewWriter(compressed)
		_, err := zw.Write([]byte("a cat at dusk"))
		require.NoError(t, err)
		require.NoError(t, zw.Close())

		data := append([]byte("stage2\x00\x01\x00en\x00\x00"), compressed.Bytes()...)
		out := withChunk(t, testPNG(t), &chunk{CType: "iTXt", Data: data})

		info, err := ExtractStages(out)
		require.NoError(t, err)
		assert.Equal(t, []Stage{{Number: 2, Text: "a cat at dusk"}}, info.Stages)
	})
}

func TestExtractStagesWithoutText(t *testing.T) {
	info, err := ExtractStages(testPNG(t))
	require.NoError(t, err)

	assert.Empty(t, info.Concept)
	assert.Empty(t, info.Stages)
}

func TestRejectsBadInput(t *testing.T) {
	_, err := ExtractStages([]byte("GIF89a not a png"))
	assert.Error(t, err)

	_, err = EmbedStages([]byte("nope"), "", nil)
	assert.Error(t, err)

	_, err = EmbedStages(testPNG(t), "", []Stage{{Number: 0, Text: "zero"}})
	assert.Error(t, err)
}

func TestExtractStagesOrdersByNumber(t *testing.T) {
	var stages []Stage
	for i := 12; i >= 1; i-- {
		stages = append(stages, Stage{Number: i, Text: string(rune('a' + i))})
	}

	out, err := EmbedStages(testPNG(t), "", stages)
	require.NoError(t, err)

	info, err := ExtractStages(out)
	require.NoError(t, err)
	require.Len(t, info.Stages, 12)

	for i, stage := range info.Stages {
		assert.Equal(t, i+1, stage.Number)
		assert.Equal(t, string(rune('a'+i+1)), stage.Text)
	}
}
