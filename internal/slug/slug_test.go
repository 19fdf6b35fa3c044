package slug_test

import (
	"testing"

	"recette/internal/slug"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Chocolate Cake":         "chocolate-cake",
		"Crème Brûlée":           "creme-brulee",
		"  Tarte -- aux pommes ": "tarte-aux-pommes",
		"100% Rye Bread!":        "100-rye-bread",
		"???":                    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, slug.Slugify(in), "input %q", in)
	}
}

func TestMakeAndParseID(t *testing.T) {
	id := uuid.New().String()

	s := slug.Make("Chocolate Cake", id)
	assert.Equal(t, "chocolate-cake-"+id, s)

	got, err := slug.ParseID(s)
	assert.NoError(t, err)
	assert.Equal(t, id, got)

	// A different title with the same ID resolves to the same recipe.
	got, err = slug.ParseID(slug.Make("Another Title Entirely", id))
	assert.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestMakeEmptyTitle(t *testing.T) {
	id := uuid.New().String()
	s := slug.Make("???", id)
	assert.Equal(t, id, s)

	got, err := slug.ParseID(s)
	assert.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestParseIDRejectsGarbage(t *testing.T) {
	_, err := slug.ParseID("short")
	assert.Error(t, err)

	_, err = slug.ParseID("chocolate-cake-not-a-uuid-but-long-enough-to-slice")
	assert.Error(t, err)
}
