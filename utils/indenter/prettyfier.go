// Package indenter renders nested structures one element per line.
package indenter

import "strings"

const unit = "  "

// Builder accumulates a nested rendering. Nested renderings produced by
// other builders are shifted by one level when added, so builders carry
// no depth of their own and may be used concurrently.
type Builder struct {
	buf *strings.Builder
}

func Indenter() Builder {
	return Builder{&strings.Builder{}}
}

func (b Builder) Start(str string) Builder {
	b.buf.Reset()
	b.buf.WriteString(str)
	return b
}

func (b Builder) NestStrings(strs ...string) Builder {
	thunks := make([]func() string, len(strs))
	for idx, s := range strs {
		s := s
		thunks[idx] = func() string { return s }
	}
	return b.NestThunked(thunks...)
}

// NestThunked renders every thunk on its own line, one level deeper. A
// single thunk is rendered inline.
func (b Builder) NestThunked(strs ...func() string) Builder {
	if len(strs) == 1 {
		b.buf.WriteString(strs[0]())
		return b
	}

	for _, str := range strs {
		b.buf.WriteString("\n" + unit)
		b.buf.WriteString(strings.ReplaceAll(str(), "\n", "\n"+unit))
	}
	b.buf.WriteString("\n")
	return b
}

func (b Builder) End(str string) string {
	return b.buf.String() + str
}
