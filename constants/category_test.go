package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in    string
		want  Category
		known bool
	}{
		{"Food", Food, true},
		{"  travel ", Travel, true},
		{"MEDICAL", Medical, true},
		{"groceries", Food, true},
		{"Uber", Travel, true},
		{"pharmacy", Medical, true},
		{"utilities", Bills, true},
		{"clothing", Shopping, true},
		{"Other", Other, true},
		{"", Other, false},
		{"spaceship parts", Other, false},
	}
	for _, c := range cases {
		got, ok := Canonicalize(c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
		assert.Equal(t, c.known, ok, "input %q", c.in)
	}
}

func TestAsStringSlice(t *testing.T) {
	assert.Equal(t, []string{"Food", "Travel", "Shopping", "Bills", "Medical", "Other"}, AsStringSlice())
}

func TestMapMediaTypeToFormat(t *testing.T) {
	assert.Equal(t, PDF, MapMediaTypeToFormat("application/pdf"))
	assert.Equal(t, IMAGE, MapMediaTypeToFormat("image/png"))
	assert.Equal(t, IMAGE, MapMediaTypeToFormat("Image/JPEG; charset=binary"))
	assert.Equal(t, "", MapMediaTypeToFormat("text/plain"))
}

func TestExtForMediaType(t *testing.T) {
	assert.Equal(t, "jpg", ExtForMediaType("image/jpeg"))
	assert.Equal(t, "png", ExtForMediaType("image/png"))
	assert.Equal(t, "pdf", ExtForMediaType("application/pdf"))
	assert.Equal(t, "svg", ExtForMediaType("image/svg+xml"))
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, "pdf", NormalizeExt(" .PDF "))
	assert.Equal(t, "jpg", NormalizeExt("jpg"))
	assert.Equal(t, "", NormalizeExt(""))
}
