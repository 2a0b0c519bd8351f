package stax

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type volumeStatusDetail struct {
	Name   string
	Status string
}

type volumeStatusInfo struct {
	Status  string
	Details []volumeStatusDetail
}

var volumeStatusDetailDecoder = NewComposite[volumeStatusDetail](
	Field("name", DecodeString, func(d *volumeStatusDetail, value string) { d.Name = value }),
	Field("status", DecodeString, func(d *volumeStatusDetail, value string) { d.Status = value }),
)

var volumeStatusInfoDecoder = NewComposite[volumeStatusInfo](
	Field("status", DecodeString, func(i *volumeStatusInfo, value string) { i.Status = value }),
	List("details/item", volumeStatusDetailDecoder.Decode, func(i *volumeStatusInfo, d volumeStatusDetail) {
		i.Details = append(i.Details, d)
	}),
)

func TestCompositeDecodesNestedList(t *testing.T) {
	c := NewCursor(strings.NewReader(`<x><status>ok</status><details><item><name>a</name></item></details></x>`))

	info, err := volumeStatusInfoDecoder.Decode(c)
	require.NoError(t, err)
	require.Equal(t, volumeStatusInfo{
		Status:  "ok",
		Details: []volumeStatusDetail{{Name: "a"}},
	}, info)
}

func TestCompositePreservesDocumentOrder(t *testing.T) {
	doc := `<x><details><item><name>first</name></item><item><name>second</name></item><item><name>third</name></item></details></x>`
	c := NewCursor(strings.NewReader(doc))

	info, err := volumeStatusInfoDecoder.Decode(c)
	require.NoError(t, err)
	require.Equal(t, []volumeStatusDetail{
		{Name: "first"},
		{Name: "second"},
		{Name: "third"},
	}, info.Details)
}

func TestCompositeSkipsUnknownTags(t *testing.T) {
	doc := `<x><newFangled>ignored</newFangled><status>ok</status><alsoNew><deep>1</deep></alsoNew></x>`
	c := NewCursor(strings.NewReader(doc))

	info, err := volumeStatusInfoDecoder.Decode(c)
	require.NoError(t, err)
	require.Equal(t, volumeStatusInfo{Status: "ok"}, info)
}

func TestCompositeDocumentStartAndNestedAgree(t *testing.T) {
	content := `<info><status>ok</status><details><item><name>a</name></item></details></info>`

	atStart := NewCursor(strings.NewReader(content))
	fromStart, err := volumeStatusInfoDecoder.Decode(atStart)
	require.NoError(t, err)

	nested := NewCursor(strings.NewReader(`<outer>` + content + `</outer>`))
	advanceTo(t, nested, "info")

	fromNested, err := volumeStatusInfoDecoder.Decode(nested)
	require.NoError(t, err)
	require.Equal(t, fromStart, fromNested)

	// the nested decode left the cursor just past </info>
	event, err := nested.Next()
	require.NoError(t, err)
	require.Equal(t, EndTag, event)
	require.Equal(t, 0, nested.Depth())
}

func TestCompositeMapEntryLastWriteWins(t *testing.T) {
	type tagged struct {
		Tags map[string]string
	}

	decoder := NewComposite[tagged](
		MapEntry("tags/entry", DecodeString, DecodeString, func(v *tagged, key, value string) {
			if v.Tags == nil {
				v.Tags = map[string]string{}
			}
			v.Tags[key] = value
		}),
	)

	doc := `<x><tags>` +
		`<entry><key>env</key><value>test</value></entry>` +
		`<entry><key>owner</key><value>alice</value></entry>` +
		`<entry><key>env</key><value>prod</value></entry>` +
		`</tags></x>`

	value, err := decoder.Decode(NewCursor(strings.NewReader(doc)))
	require.NoError(t, err)
	require.Equal(t, map[string]string{"env": "prod", "owner": "alice"}, value.Tags)
}

func TestCompositeScalarErrorAbortsDecode(t *testing.T) {
	type counted struct {
		Count int
	}

	decoder := NewComposite[counted](
		Field("count", DecodeInt[int], func(v *counted, value int) { v.Count = value }),
	)

	_, err := decoder.Decode(NewCursor(strings.NewReader(`<x><count>many</count></x>`)))
	require.Error(t, err)
	require.ErrorContains(t, err, `decode "count"`)
}

func TestCompositeReturnsWhenOwningElementCloses(t *testing.T) {
	// the stream closes the decoder's element and its parent without any of
	// the expected children. the decode must terminate with the value built
	// so far and must not consume past the owning element.
	c := NewTokenCursor(&tokenSliceReader{tokens: []xml.Token{
		xml.StartElement{Name: xml.Name{Local: "outer"}},
		xml.StartElement{Name: xml.Name{Local: "info"}},
		xml.EndElement{Name: xml.Name{Local: "info"}},
		xml.EndElement{Name: xml.Name{Local: "outer"}},
	}})

	advanceTo(t, c, "info")

	info, err := volumeStatusInfoDecoder.Decode(c)
	require.NoError(t, err)
	require.Equal(t, volumeStatusInfo{}, info)
	require.Equal(t, 1, c.Depth())

	event, err := c.Next()
	require.NoError(t, err)
	require.Equal(t, EndTag, event)

	event, err = c.Next()
	require.NoError(t, err)
	require.Equal(t, EndOfDocument, event)
}

func TestCompositeEndOfDocumentIsTerminal(t *testing.T) {
	c := NewCursor(strings.NewReader(`<x><status>ok</status></x>`))

	info, err := volumeStatusInfoDecoder.Decode(c)
	require.NoError(t, err)
	require.Equal(t, "ok", info.Status)

	// decoding again on the exhausted stream yields an empty value
	again, err := volumeStatusInfoDecoder.Decode(c)
	require.NoError(t, err)
	require.Equal(t, volumeStatusInfo{}, again)
}
