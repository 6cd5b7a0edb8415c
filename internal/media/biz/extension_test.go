package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtensionList(t *testing.T) {
	tests := []struct {
		name    string
		setting string
		want    []string
	}{
		{"space separated", "txt pdf doc docx xls xlsx zip", []string{"txt", "pdf", "doc", "docx", "xls", "xlsx", "zip"}},
		{"commas and trailing space", "jpg, png,  gif  ", []string{"jpg", "png", "gif"}},
		{"duplicates collapse", "pdf pdf, txt pdf", []string{"pdf", "txt"}},
		{"newlines", "pdf\ntxt\n", []string{"pdf", "txt"}},
		{"empty", "", nil},
		{"only whitespace", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseExtensionList(tt.setting))
		})
	}
}

func TestNormalizeAlias(t *testing.T) {
	tests := []struct {
		name    string
		alias   string
		want    string
		wantErr bool
	}{
		{"unchanged", "/guide.pdf", "/guide.pdf", false},
		{"surrounding whitespace", "  /guide.pdf\t", "/guide.pdf", false},
		{"trailing slashes", "/docs/guide.pdf//", "/docs/guide.pdf", false},
		{"lone slash", "/", "", false},
		{"empty", "", "", false},
		{"missing leading slash", "guide.pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeAlias(tt.alias)
			if tt.wantErr {
				require.Error(t, err)
				ve, ok := AsValidationError(err)
				require.True(t, ok)
				assert.Equal(t, AliasField, ve.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtensionOf(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		ok       bool
	}{
		{"report.final.pdf", "pdf", true},
		{"brochure.PDF", "PDF", true},
		{"README", "", false},
		{"trailing.", "", false},
		{".htaccess", "htaccess", true},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, ok := ExtensionOf(tt.filename)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllowedExtensions(t *testing.T) {
	ctx := context.Background()

	t.Run("cached source filename wins", func(t *testing.T) {
		f := newFixture(t)
		m := &Media{Bundle: "document", SourceFilename: "report.final.pdf"}

		exts, err := f.validator.AllowedExtensions(ctx, m)
		require.NoError(t, err)
		assert.Equal(t, []string{"pdf"}, exts)
	})

	t.Run("filename loaded from source file", func(t *testing.T) {
		f := newFixture(t)
		m := f.seedDocument(1, "budget.xlsx", true)

		exts, err := f.validator.AllowedExtensions(ctx, m)
		require.NoError(t, err)
		assert.Equal(t, []string{"xlsx"}, exts)
	})

	t.Run("no file falls back to bundle", func(t *testing.T) {
		f := newFixture(t)
		m := &Media{Bundle: "document"}

		exts, err := f.validator.AllowedExtensions(ctx, m)
		require.NoError(t, err)
		assert.Equal(t, []string{"txt", "pdf", "doc", "docx", "xls", "xlsx", "zip"}, exts)
	})

	t.Run("filename without extension falls back to bundle", func(t *testing.T) {
		f := newFixture(t)
		m := &Media{Bundle: "document", SourceFilename: "LICENSE"}

		exts, err := f.validator.AllowedExtensions(ctx, m)
		require.NoError(t, err)
		assert.Len(t, exts, 7)
	})

	t.Run("dangling file reference falls back to bundle", func(t *testing.T) {
		f := newFixture(t)
		m := &Media{Bundle: "document", Fields: map[string]uint{"field_media_document": 99}}

		exts, err := f.validator.AllowedExtensions(ctx, m)
		require.NoError(t, err)
		assert.Len(t, exts, 7)
	})

	t.Run("unknown bundle yields empty set", func(t *testing.T) {
		f := newFixture(t)
		m := &Media{Bundle: "video"}

		exts, err := f.validator.AllowedExtensions(ctx, m)
		require.NoError(t, err)
		assert.Empty(t, exts)
	})
}

func TestBundleExtensionsCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.validator.BundleExtensions(ctx, "document")
	require.NoError(t, err)
	loads := f.types.loads

	second, err := f.validator.BundleExtensions(ctx, "document")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, loads, f.types.loads, "second lookup should come from the cache")

	f.types.rows["document"].FileExtensions = "odt"
	f.validator.InvalidateBundle("document")

	third, err := f.validator.BundleExtensions(ctx, "document")
	require.NoError(t, err)
	assert.Equal(t, []string{"odt"}, third)
}

func TestValidateAlias(t *testing.T) {
	log, _ := newObservedLogger()
	strict := NewExtensionValidator(nil, nil, newMapCache(), false, log)
	lenient := NewExtensionValidator(nil, nil, newMapCache(), true, log)

	t.Run("empty alias always valid", func(t *testing.T) {
		assert.NoError(t, strict.ValidateAlias("", nil))
		assert.NoError(t, strict.ValidateAlias("", []string{"pdf"}))
	})

	t.Run("suffix match", func(t *testing.T) {
		assert.NoError(t, strict.ValidateAlias("/files/report.pdf", []string{"txt", "pdf"}))
		assert.NoError(t, strict.ValidateAlias("/report.final.pdf", []string{"pdf"}))
	})

	t.Run("case sensitive", func(t *testing.T) {
		err := strict.ValidateAlias("/files/report.PDF", []string{"pdf"})
		require.Error(t, err)
	})

	t.Run("extension must follow a dot", func(t *testing.T) {
		assert.Error(t, strict.ValidateAlias("/files/reportpdf", []string{"pdf"}))
	})

	t.Run("error names field and extensions", func(t *testing.T) {
		err := strict.ValidateAlias("/files/report.exe", []string{"pdf", "txt"})
		require.Error(t, err)

		ve, ok := AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, AliasField, ve.Field)
		assert.Equal(t, "Only the alias with the following extensions are allowed: pdf txt.", err.Error())
	})

	t.Run("empty set", func(t *testing.T) {
		assert.Error(t, strict.ValidateAlias("/anything.pdf", nil))
		assert.NoError(t, lenient.ValidateAlias("/anything.pdf", nil))
	})
}
