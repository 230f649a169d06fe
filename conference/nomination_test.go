package conference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNominations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "mixed commas", input: "张三, 李四，王五", want: []string{"张三", "李四", "王五"}},
		{name: "enumeration comma", input: "沐阳、若溪", want: []string{"沐阳", "若溪"}},
		{name: "empty", input: "", want: []string{}},
		{name: "whitespace", input: "   \t ", want: []string{}},
		{name: "only separators", input: ",，、 ,", want: []string{}},
		{name: "empty tokens dropped", input: ",张三,, ,李四,", want: []string{"张三", "李四"}},
		{name: "single", input: "  知远  ", want: []string{"知远"}},
		{name: "fullwidth space trimmed", input: "　若溪　", want: []string{"若溪"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNominations(tt.input))
		})
	}
}
