package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/media-path/internal/media/biz"
)

func TestFieldsJSON(t *testing.T) {
	var f FieldsJSON
	require.NoError(t, f.Scan([]byte(`{"field_media_document": 12}`)))
	assert.Equal(t, uint(12), f["field_media_document"])

	require.NoError(t, f.Scan(`{"a": 1}`))
	assert.Equal(t, FieldsJSON{"a": 1}, f)

	require.NoError(t, f.Scan(nil))
	assert.Nil(t, f)

	assert.Error(t, f.Scan(42))

	v, err := FieldsJSON(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)
}

func TestMediaConversion(t *testing.T) {
	m := &biz.Media{
		ID:             3,
		Bundle:         "document",
		Name:           "Guide",
		Langcode:       "en",
		OwnerID:        "u1",
		Fields:         map[string]uint{"field_media_document": 7},
		SourceFilename: "guide.pdf",
		Translations:   map[string]string{"fr": "Guide FR", "de": "Leitfaden"},
	}

	po := toMediaPO(m)
	require.Len(t, po.Translations, 2)
	assert.Equal(t, "de", po.Translations[0].Langcode)
	assert.Equal(t, uint(3), po.Translations[1].MediaID)

	back := toMedia(po)
	assert.Equal(t, m.Fields, back.Fields)
	assert.Equal(t, m.Translations, back.Translations)
	assert.Equal(t, "guide.pdf", back.SourceFilename)

	// 修改转换结果不影响原对象
	back.Fields["field_media_document"] = 99
	assert.Equal(t, uint(7), m.Fields["field_media_document"])
}

func TestModels(t *testing.T) {
	tables := map[string]bool{}
	for _, m := range Models() {
		tabler, ok := m.(interface{ TableName() string })
		require.True(t, ok)
		tables[tabler.TableName()] = true
	}
	for _, name := range []string{"media", "media_translations", "files", "media_types", "path_aliases"} {
		assert.True(t, tables[name], name)
	}
}
