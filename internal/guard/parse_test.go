package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{
			name: "bare object",
			raw:  `{"summary": "short"}`,
			want: `{"summary":"short"}`,
			ok:   true,
		},
		{
			name: "fenced with language tag",
			raw:  "```json\n{\"summary\": \"short\"}\n```",
			want: `{"summary":"short"}`,
			ok:   true,
		},
		{
			name: "fenced without language tag",
			raw:  "```\n{\"summary\": \"short\"}\n```",
			want: `{"summary":"short"}`,
			ok:   true,
		},
		{
			name: "surrounding prose",
			raw:  "Here is the result:\n{\"summary\": \"short\"}\nHope that helps!",
			want: `{"summary":"short"}`,
			ok:   true,
		},
		{
			name: "array payload",
			raw:  `[1, 2, 3]`,
			want: `[1,2,3]`,
			ok:   true,
		},
		{
			name: "empty",
			raw:  "   ",
			ok:   false,
		},
		{
			name: "plain prose",
			raw:  "I could not produce the requested output.",
			ok:   false,
		},
		{
			name: "truncated object",
			raw:  `{"summary": "unterminated`,
			ok:   false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ExtractJSON(tc.raw)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.JSONEq(t, tc.want, string(got))
			}
		})
	}
}
