package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/coregx/ntfy/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStream = `{"id":"open1","time":1700000000,"event":"open","topic":"alerts"}
{"id":"m1","time":1700000001,"event":"message","topic":"alerts","message":"disk full","priority":5,"tags":["warning","db"]}
   
{"id":"k1","time":1700000002,"event":"keepalive","topic":"alerts"}
{"id":"x1","time":1700000003,"event":"message_delete","topic":"alerts"}
not json at all
{"id":"m2","time":1700000004,"event":"message","topic":"alerts","title":"Backup","message":"done"}
`

type record struct {
	msg model.Message
	err string
}

// drain reads r until a terminal error and returns every record plus that error.
func drain(t *testing.T, r *Reader) ([]record, error) {
	t.Helper()
	var out []record
	for i := 0; i < 1000; i++ {
		m, err := r.Next()
		var perr *model.ParseError
		switch {
		case err == nil:
			out = append(out, record{msg: m})
		case errors.As(err, &perr):
			out = append(out, record{err: perr.Kind.String()})
		default:
			return out, err
		}
	}
	t.Fatal("reader did not terminate")
	return nil, nil
}

// chunkReader returns data in chunks of the given sizes, cycling.
type chunkReader struct {
	data  []byte
	sizes []int
	i     int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := c.sizes[c.i%len(c.sizes)]
	c.i++
	if n > len(p) {
		n = len(p)
	}
	if n > len(c.data) {
		n = len(c.data)
	}
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

func TestReader_Sequence(t *testing.T) {
	records, err := drain(t, NewReader(strings.NewReader(sampleStream)))
	require.ErrorIs(t, err, io.EOF)
	require.Len(t, records, 6)

	assert.Equal(t, model.EventOpen, records[0].msg.Event)
	assert.Equal(t, "m1", records[1].msg.ID)
	assert.Equal(t, []string{"warning", "db"}, records[1].msg.Tags)
	assert.Equal(t, 5, records[1].msg.Priority)
	assert.Equal(t, model.EventKeepalive, records[2].msg.Event)
	assert.Equal(t, "unknown_event", records[3].err)
	assert.Equal(t, "malformed_json", records[4].err)
	assert.Equal(t, "m2", records[5].msg.ID)
	assert.Equal(t, "Backup", records[5].msg.Title)
}

func TestReader_ChunkBoundaryInvariance(t *testing.T) {
	want, wantErr := drain(t, NewReader(strings.NewReader(sampleStream)))

	splits := [][]int{
		{1},
		{2, 3},
		{7},
		{13, 1, 64},
		{50, 51},
		{len(sampleStream)},
	}
	for _, sizes := range splits {
		r := NewReader(&chunkReader{data: []byte(sampleStream), sizes: sizes})
		got, err := drain(t, r)
		assert.Equal(t, wantErr, err, "sizes %v", sizes)
		assert.Equal(t, want, got, "sizes %v", sizes)
	}

	got, err := drain(t, NewReader(iotest.OneByteReader(strings.NewReader(sampleStream))))
	assert.Equal(t, wantErr, err)
	assert.Equal(t, want, got)

	got, err = drain(t, NewReader(iotest.HalfReader(strings.NewReader(sampleStream))))
	assert.Equal(t, wantErr, err)
	assert.Equal(t, want, got)
}

func TestReader_UnterminatedFinalLineIsDiscarded(t *testing.T) {
	input := `{"id":"m1","time":1,"event":"message","topic":"t","message":"complete"}
{"id":"m2","time":2,"event":"message","topic":"t","message":"complete too"}`

	records, err := drain(t, NewReader(strings.NewReader(input)))

	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Len(t, records, 1)
	assert.Equal(t, "m1", records[0].msg.ID)
}

func TestReader_TrailingWhitespaceIsCleanEOF(t *testing.T) {
	input := "{\"id\":\"m1\",\"time\":1,\"event\":\"message\",\"topic\":\"t\"}\n  \t"

	records, err := drain(t, NewReader(strings.NewReader(input)))

	require.ErrorIs(t, err, io.EOF)
	require.Len(t, records, 1)
}

func TestReader_OversizedLineIsSkipped(t *testing.T) {
	long := `{"id":"big","time":1,"event":"message","topic":"t","message":"` + strings.Repeat("x", 200) + "\"}\n"
	input := long + `{"id":"m2","time":2,"event":"message","topic":"t"}` + "\n"

	r := NewReader(iotest.HalfReader(strings.NewReader(input)), WithMaxLineSize(100))
	_, err := r.Next()
	var perr *model.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, model.ParseErrorMalformedJSON, perr.Kind)
	assert.ErrorIs(t, err, ErrLineTooLong)

	m, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "m2", m.ID)
}

func TestReader_PropagatesReadErrors(t *testing.T) {
	boom := errors.New("connection reset")
	r := NewReader(iotest.ErrReader(boom))

	_, err := r.Next()
	assert.ErrorIs(t, err, boom)
}
