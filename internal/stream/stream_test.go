package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func collectLines(t *testing.T, w Text) ([]string, error) {
	t.Helper()
	var lines []string
	w.OnLine = func(line string) { lines = append(lines, line) }
	err := w.Run(context.Background())
	return lines, err
}

func TestText_SplitsAndStrips(t *testing.T) {
	lines, err := collectLines(t, Text{R: strings.NewReader("one\ntwo\r\n\nthree")})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "", "three"}, lines)
}

func TestText_EmptyStream(t *testing.T) {
	lines, err := collectLines(t, Text{R: strings.NewReader("")})
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestText_OneByteReads(t *testing.T) {
	r := iotest.OneByteReader(strings.NewReader("héllo\nwörld\n"))
	lines, err := collectLines(t, Text{R: r})
	require.NoError(t, err)
	assert.Equal(t, []string{"héllo", "wörld"}, lines)
}

func TestText_InvalidUTF8Replaced(t *testing.T) {
	lines, err := collectLines(t, Text{R: bytes.NewReader([]byte("a\xffb\n"))})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "a�b", lines[0])
}

func TestText_Windows1252(t *testing.T) {
	raw := []byte{'c', 'a', 'f', 0xE9, '\n'}
	lines, err := collectLines(t, Text{R: bytes.NewReader(raw), Encoding: charmap.Windows1252})
	require.NoError(t, err)
	assert.Equal(t, []string{"café"}, lines)
}

func TestText_UTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	raw, err := enc.NewEncoder().Bytes([]byte("x\ny\n"))
	require.NoError(t, err)

	lines, err := collectLines(t, Text{R: bytes.NewReader(raw), Encoding: enc})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, lines)
}

func TestText_SplitsOnCR(t *testing.T) {
	lines, err := collectLines(t, Text{R: strings.NewReader("a\rb\r\nc\n")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, lines)
}

func TestText_CRLFAcrossReads(t *testing.T) {
	r := iotest.OneByteReader(strings.NewReader("a\r\nb\r\rc\r"))
	lines, err := collectLines(t, Text{R: r})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "", "c"}, lines)
}

func TestText_CRDeliveredWithoutLookahead(t *testing.T) {
	pr, pw := io.Pipe()
	got := make(chan string, 4)
	w := Text{R: pr, OnLine: func(line string) { got <- line }}
	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	_, err := pw.Write([]byte("[download]  10.0%\r"))
	require.NoError(t, err)
	select {
	case line := <-got:
		assert.Equal(t, "[download]  10.0%", line)
	case <-time.After(5 * time.Second):
		t.Fatal("line ending in a lone CR was held back")
	}

	_, err = pw.Write([]byte("\nnext\n"))
	require.NoError(t, err)
	require.NoError(t, pw.Close())
	require.NoError(t, <-done)
	assert.Equal(t, "next", <-got)
	assert.Empty(t, got)
}

func TestText_UnboundedByDefault(t *testing.T) {
	long := strings.Repeat("x", 2<<20)
	lines, err := collectLines(t, Text{R: strings.NewReader(long + "\nafter\n")})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, long, lines[0])
	assert.Equal(t, "after", lines[1])
}

func TestText_LineTooLong(t *testing.T) {
	in := "ok\n" + strings.Repeat("x", 64) + "\nafter\n"
	lines, err := collectLines(t, Text{R: strings.NewReader(in), MaxLine: 16})
	assert.ErrorIs(t, err, ErrLineTooLong)
	assert.Equal(t, []string{"ok", "after"}, lines)
}

func TestText_ReadFailure(t *testing.T) {
	boom := errors.New("boom")
	r := io.MultiReader(strings.NewReader("ok\n"), iotest.ErrReader(boom))
	lines, err := collectLines(t, Text{R: r})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"ok"}, lines)
}

func TestText_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var lines []string
	w := Text{
		R: strings.NewReader("a\nb\nc\n"),
		OnLine: func(line string) {
			lines = append(lines, line)
			cancel()
		},
	}
	require.NoError(t, w.Run(ctx))
	assert.Equal(t, []string{"a"}, lines)
}

func TestBinary_ReusesBuffer(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 50)

	var got bytes.Buffer
	var first []byte
	w := Binary{
		R:    bytes.NewReader(payload),
		Size: 64,
		OnChunk: func(n int, buf []byte) {
			assert.LessOrEqual(t, n, 64)
			assert.Len(t, buf, 64)
			if first == nil {
				first = buf
			} else {
				assert.Same(t, &first[0], &buf[0])
			}
			got.Write(buf[:n])
		},
	}
	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, payload, got.Bytes())
}

func TestBinary_HalfReads(t *testing.T) {
	payload := []byte("abcdefghijklmnopqrstuvwxyz")
	var got bytes.Buffer
	w := Binary{
		R:       iotest.HalfReader(bytes.NewReader(payload)),
		Size:    8,
		OnChunk: func(n int, buf []byte) { got.Write(buf[:n]) },
	}
	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, payload, got.Bytes())
}

func TestBinary_DataThenError(t *testing.T) {
	boom := errors.New("boom")
	r := iotest.DataErrReader(io.MultiReader(bytes.NewReader([]byte("xy")), iotest.ErrReader(boom)))

	var got []byte
	w := Binary{
		R:       r,
		Size:    16,
		OnChunk: func(n int, buf []byte) { got = append(got, buf[:n]...) },
	}
	assert.ErrorIs(t, w.Run(context.Background()), boom)
	assert.Equal(t, []byte("xy"), got)
}

func TestBinary_InvalidSize(t *testing.T) {
	w := Binary{R: strings.NewReader("x"), OnChunk: func(int, []byte) {}}
	assert.Error(t, w.Run(context.Background()))
}

func TestBinary_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	w := Binary{R: strings.NewReader("data"), Size: 4, OnChunk: func(int, []byte) { called = true }}
	require.NoError(t, w.Run(ctx))
	assert.False(t, called)
}
