package notes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"<p>Milk</p>", "Milk"},
		{"plain", "plain"},
		{"<p>a</p><p>b</p>", "a b"},
		{"<p>Mi<b>lk</b> &amp; eggs</p>", "Milk & eggs"},
		{"<p>x</p><script>alert(1)</script>", "x"},
		{"<h1>Title</h1>\n\n<ul><li>one</li></ul>", "Title one"},
		{"line<br/>break", "line break"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PlainText(tc.in), "input %q", tc.in)
	}
}
