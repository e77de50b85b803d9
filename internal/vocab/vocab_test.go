package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_New(t *testing.T) {
	testCases := []struct {
		name   string
		raw    [][]byte
		expLen int
	}{
		{name: "empty vocabulary", raw: nil, expLen: 0},
		{name: "single entry", raw: [][]byte{[]byte("a")}, expLen: 1},
		{name: "entries may repeat and be empty", raw: [][]byte{[]byte(""), []byte("ab"), []byte("ab")}, expLen: 3},
		{name: "non-UTF-8 bytes", raw: [][]byte{{0xff, 0xfe}}, expLen: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			v := New(tc.raw)

			assert.Equal(tc.expLen, v.Len())
			for i := range tc.raw {
				assert.Equal(tc.raw[i], []byte(v.At(i)))
			}
		})
	}
}

func Test_New_copiesInput(t *testing.T) {
	assert := assert.New(t)

	raw := [][]byte{[]byte("mutate-me")}
	v := New(raw)
	raw[0][0] = 'X'

	assert.Equal("mutate-me", string(v.At(0)))
}

func Test_FromStrings(t *testing.T) {
	assert := assert.New(t)

	v := FromStrings([]string{"", "yes", "no"})

	assert.Equal(3, v.Len())
	assert.Equal("", string(v.At(0)))
	assert.Equal("yes", string(v.At(1)))
	assert.Equal("no", string(v.At(2)))
}

func Test_Index(t *testing.T) {
	testCases := []struct {
		name   string
		vocab  []string
		want   string
		expect int
	}{
		{name: "present", vocab: []string{"a", "b", "c"}, want: "b", expect: 1},
		{name: "absent", vocab: []string{"a", "b"}, want: "z", expect: -1},
		{name: "empty entry", vocab: []string{"", "a"}, want: "", expect: 0},
		{name: "first of duplicates", vocab: []string{"x", "dup", "dup"}, want: "dup", expect: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			v := FromStrings(tc.vocab)

			assert.Equal(tc.expect, v.Index([]byte(tc.want)))
		})
	}
}
