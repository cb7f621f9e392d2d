package tmplx

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("invalid syntax", func(t *testing.T) {
		_, err := Parse("bad", "{{ .Name ")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrParseTemplate))
	})

	t.Run("unknown func", func(t *testing.T) {
		_, err := Parse("bad", "{{ shout .Name }}")
		assert.True(t, errors.Is(err, ErrParseTemplate))
	})

	t.Run("nil custom func", func(t *testing.T) {
		_, err := Parse("bad", "x", WithTemplateFunc("x", nil))
		assert.True(t, errors.Is(err, ErrParseTemplate))
	})

	t.Run("validate rejects output", func(t *testing.T) {
		_, err := Parse("v", "{{ .Name }}", WithValidate(map[string]string{"Name": ""}, func(b *bytes.Buffer) error {
			if b.Len() == 0 {
				return fmt.Errorf("empty output")
			}
			return nil
		}))
		assert.ErrorContains(t, err, "empty output")
	})

	t.Run("must parse panics", func(t *testing.T) {
		assert.Panics(t, func() { MustParse("bad", "{{ end }}") })
	})
}

func TestRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		data any
		want string
	}{
		{
			name: "escape",
			text: `<b>{{ escape .Title }}</b>`,
			data: map[string]any{"Title": `Tom & "Jerry" <1080p>`},
			want: `<b>Tom &amp; &#34;Jerry&#34; &lt;1080p&gt;</b>`,
		},
		{
			name: "truncate",
			text: `{{ truncate 5 .Title }}|{{ truncate 10 .Title }}`,
			data: map[string]any{"Title": "abcdefgh"},
			want: `abcde...|abcdefgh`,
		},
		{
			name: "default",
			text: `{{ default "n/a" .Missing }}`,
			data: map[string]any{"Missing": ""},
			want: `n/a`,
		},
		{
			name: "json",
			text: `{{ json .List }}`,
			data: map[string]any{"List": []int{1, 2}},
			want: `[1,2]`,
		},
		{
			name: "repeat",
			text: `{{ repeat "-" 3 }}`,
			want: `---`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := Parse(tt.name, tt.text)
			require.NoError(t, err)
			buf, err := tmpl.Render(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestRenderString(t *testing.T) {
	tmpl := MustParse("size", "\n  {{ bytes .Size }}  \n", WithTemplateFunc("bytes", func(n int64) (string, error) {
		if n < 0 {
			return "", fmt.Errorf("negative")
		}
		return strings.Repeat("#", int(n)), nil
	}))

	got, err := tmpl.RenderString(map[string]int64{"Size": 3})
	require.NoError(t, err)
	assert.Equal(t, "###", got)

	_, err = tmpl.RenderString(map[string]int64{"Size": -1})
	assert.True(t, errors.Is(err, ErrRenderTemplate))
}
