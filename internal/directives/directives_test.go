package directives

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickedit/internal/models"
)

func TestDecode_Aliases(t *testing.T) {
	d, err := Decode(models.Modification{Type: "stylesheet", File: "a.css", Target: ".x", Property: "color", Value: "red"})
	require.NoError(t, err)
	assert.Equal(t, StyleEdit{Path: "a.css", Selector: ".x", Property: "color", Value: "red"}, d)

	d, err = Decode(models.Modification{Type: "TSX", File: "A.tsx", Target: "Button", Value: "Buy now"})
	require.NoError(t, err)
	ce, ok := d.(ComponentEdit)
	require.True(t, ok)
	require.NotNil(t, ce.Replacement)
	assert.Equal(t, "Buy now", *ce.Replacement)

	_, err = Decode(models.Modification{Type: "python"})
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestEncode_RoundTrip(t *testing.T) {
	in := []models.Modification{
		{Type: "css", File: "a.css", Target: ".x", Property: "color", Value: "red"},
		{Type: "html", File: "index.html", Target: "#hero", Attribute: "class", Value: "big"},
		{Type: "jsx", File: "App.tsx", Target: "Button", Changes: map[string]any{"className": "btn"}},
	}
	ds, errs := DecodeAll(in)
	require.Empty(t, errs)
	assert.Equal(t, in, EncodeAll(ds))
}

func TestDecodeAll_CollectsUnknown(t *testing.T) {
	ds, errs := DecodeAll([]models.Modification{{Type: "css", File: "a.css"}, {Type: "yaml"}})
	assert.Len(t, ds, 1)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrUnknownKind)
}

func TestValidate_RequiredFields(t *testing.T) {
	files := map[string]string{"a.css": "", "index.html": "", "App.tsx": ""}
	ds := []Directive{
		StyleEdit{Path: "a.css", Selector: ".x", Property: "color", Value: "red"},
		StyleEdit{Path: "a.css", Selector: ".x"},
		MarkupEdit{Path: "index.html"},
		ComponentEdit{Path: "App.tsx", Component: "Button"},
		StyleEdit{Path: "missing.css", Selector: ".x", Property: "color"},
	}

	res := Validate(ds, files)

	assert.False(t, res.Valid())
	invalid := res.Invalid()
	assert.False(t, invalid[0])
	assert.True(t, invalid[1])
	assert.True(t, invalid[2])
	assert.True(t, invalid[3])
	assert.True(t, invalid[4])
}

func TestValidate_DanglingImportIsWarning(t *testing.T) {
	files := map[string]string{"src/App.tsx": "", "src/components/Card.tsx": ""}
	ds := []Directive{ComponentEdit{
		Path:      "src/App.tsx",
		Component: "main",
		Changes: map[string]any{
			"import": "import Card from './components/Card'",
			"props":  map[string]any{"icon": "./icons/Star"},
		},
	}}

	res := Validate(ds, files)

	assert.True(t, res.Valid())
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Message, "./icons/Star")
}

func TestAutoFix_RetargetsMisspelledFile(t *testing.T) {
	files := map[string]string{"src/Button.tsx": "", "src/Header.tsx": "", "src/index.css": ""}
	ds := []Directive{ComponentEdit{Path: "Buton.tsx", Component: "button", Changes: map[string]any{"className": "primary"}}}

	res := AutoFix(ds, files)

	require.Len(t, res.Directives, 1)
	assert.Equal(t, "src/Button.tsx", res.Directives[0].File())
	assert.Empty(t, res.Dropped)
	assert.Len(t, res.Fixed, 1)
}

func TestAutoFix_FillsDefaultsAndDrops(t *testing.T) {
	files := map[string]string{"App.tsx": "", "a.css": ""}
	ds := []Directive{
		ComponentEdit{Path: "App.tsx", Component: "Button"},
		StyleEdit{Path: "a.css", Selector: ".x"},
		MarkupEdit{Path: "nothing-like-it.html", Selector: "h1", Value: "x"},
	}

	res := AutoFix(ds, files)

	require.Len(t, res.Directives, 1)
	assert.Equal(t, map[string]any{}, res.Directives[0].(ComponentEdit).Changes)
	require.Len(t, res.Dropped, 2)
	assert.Equal(t, 1, res.Dropped[0].Index)
	assert.Equal(t, 2, res.Dropped[1].Index)
	assert.True(t, Validate(res.Directives, files).Valid())
}

func TestFindSimilar_Order(t *testing.T) {
	files := map[string]string{
		"src/styles/index.css":      "",
		"src/components/Header.tsx": "",
		"src/components/NavBar.tsx": "",
	}

	got, ok := FindSimilar("components/Header.tsx", files)
	assert.True(t, ok)
	assert.Equal(t, "src/components/Header.tsx", got)

	got, ok = FindSimilar("header.jsx", files)
	assert.True(t, ok)
	assert.Equal(t, "src/components/Header.tsx", got)

	got, ok = FindSimilar("Nav.tsx", files)
	assert.True(t, ok)
	assert.Equal(t, "src/components/NavBar.tsx", got)

	_, ok = FindSimilar("Footer.tsx", files)
	assert.False(t, ok)
}
