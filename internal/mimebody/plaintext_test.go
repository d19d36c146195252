package mimebody

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLToPlaintext(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "heading and emphasis",
			html: "<h1>Title</h1><p>Hello <b>bold</b> and <i>em</i> text.</p>",
			want: "# Title\n\nHello **bold** and _em_ text.",
		},
		{
			name: "unordered list with link",
			html: `<ul><li>One</li><li>Two <a href="https://x.test">link</a></li></ul><script>var x;</script>`,
			want: "- One\n- Two link (https://x.test)",
		},
		{
			name: "ordered nested list",
			html: "<ol><li>A<ul><li>B</li></ul></li><li>C</li></ol>",
			want: "1. A\n  - B\n2. C",
		},
		{
			name: "blockquote",
			html: "<p>Intro</p><blockquote><p>quoted</p><p>again</p></blockquote><p>After</p>",
			want: "Intro\n\n> quoted\n>\n> again\n\nAfter",
		},
		{
			name: "line breaks and whitespace",
			html: "<div>first<br>second</div>\n  <div>  third   word </div>",
			want: "first\nsecond\nthird word",
		},
		{
			name: "link equal to label",
			html: `<p><a href="https://x.test">https://x.test</a></p>`,
			want: "https://x.test",
		},
		{
			name: "style dropped",
			html: "<html><head><style>p{}</style><title>t</title></head><body><p>Body</p></body></html>",
			want: "Body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HTMLToPlaintext(tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
