package stax

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// scalarCursor positions a cursor on the start tag of a single element
// holding the given text.
func scalarCursor(t *testing.T, text string) *Cursor {
	t.Helper()

	c := NewCursor(strings.NewReader(fmt.Sprintf("<v>%s</v>", text)))

	event, err := c.Next()
	require.NoError(t, err)
	require.Equal(t, StartTag, event)

	return c
}

func TestDecodeString(t *testing.T) {
	value, err := DecodeString(scalarCursor(t, "hello world"))
	require.NoError(t, err)
	require.Equal(t, "hello world", value)
}

func TestDecodeBool(t *testing.T) {
	value, err := DecodeBool(scalarCursor(t, "true"))
	require.NoError(t, err)
	require.Equal(t, true, value)

	_, err = DecodeBool(scalarCursor(t, "yes"))
	require.ErrorIs(t, err, strconv.ErrSyntax)
}

func TestDecodeInt(t *testing.T) {
	value, err := DecodeInt[int32](scalarCursor(t, "-2147483648"))
	require.NoError(t, err)
	require.Equal(t, int32(-2147483648), value)

	_, err = DecodeInt[int8](scalarCursor(t, "128"))
	require.ErrorIs(t, err, strconv.ErrRange)

	_, err = DecodeInt[int64](scalarCursor(t, "foobar"))
	require.ErrorIs(t, err, strconv.ErrSyntax)
}

func TestDecodeUint(t *testing.T) {
	value, err := DecodeUint[uint16](scalarCursor(t, "65535"))
	require.NoError(t, err)
	require.Equal(t, uint16(65535), value)

	_, err = DecodeUint[uint16](scalarCursor(t, "-1"))
	require.ErrorIs(t, err, strconv.ErrSyntax)
}

func TestDecodeFloat(t *testing.T) {
	value, err := DecodeFloat[float64](scalarCursor(t, "-1234.5"))
	require.NoError(t, err)
	require.Equal(t, -1234.5, value)

	_, err = DecodeFloat[float32](scalarCursor(t, ""))
	require.ErrorIs(t, err, strconv.ErrSyntax)
}

func TestDecodeTimeRFC3339(t *testing.T) {
	value, err := DecodeTime(scalarCursor(t, "2016-03-04T17:22:31Z"))
	require.NoError(t, err)
	require.Equal(t, time.Date(2016, 3, 4, 17, 22, 31, 0, time.UTC), value)
}

func TestDecodeTimeEpoch(t *testing.T) {
	value, err := DecodeTime(scalarCursor(t, "1457112151.5"))
	require.NoError(t, err)
	require.Equal(t, time.Unix(1457112151, 500000000).UTC(), value)
}

func TestDecodeTimeInvalid(t *testing.T) {
	_, err := DecodeTime(scalarCursor(t, "last tuesday"))
	require.Error(t, err)
}

func TestDecodeBytes(t *testing.T) {
	value, err := DecodeBytes(scalarCursor(t, "aGVsbG8="))
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), value)

	_, err = DecodeBytes(scalarCursor(t, "not base64!"))
	require.Error(t, err)
}

func TestScalarLeavesCursorPastClosingTag(t *testing.T) {
	c := NewCursor(strings.NewReader(`<a><n>41</n><n>42</n></a>`))

	_, err := c.Next()
	require.NoError(t, err)

	_, err = c.Next()
	require.NoError(t, err)

	value, err := DecodeInt[int](c)
	require.NoError(t, err)
	require.Equal(t, 41, value)
	require.Equal(t, 1, c.Depth())

	event, err := c.Next()
	require.NoError(t, err)
	require.Equal(t, StartTag, event)

	value, err = DecodeInt[int](c)
	require.NoError(t, err)
	require.Equal(t, 42, value)
}
