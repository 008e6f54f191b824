package debug

import (
	"testing"
)

func TestTreeWriter(t *testing.T) {
	tests := []struct {
		name  string
		write func(tw *TreeWriter)
		want  string
	}{
		{
			name:  "empty",
			write: func(*TreeWriter) {},
			want:  "",
		},
		{
			name: "lines",
			write: func(tw *TreeWriter) {
				tw.Line(0, "document: %d block(s)", 2)
				tw.Line(1, "[0] paragraph b1")
				tw.Line(2, "deep")
			},
			want: "document: 2 block(s)\n  [0] paragraph b1\n    deep\n",
		},
		{
			name: "text_quoted",
			write: func(tw *TreeWriter) {
				tw.TextBlock(1, "content", `say "hi"`+"\n")
			},
			want: "  content: \"say \\\"hi\\\"\\n\"\n",
		},
		{
			name: "text_empty",
			write: func(tw *TreeWriter) {
				tw.TextBlock(0, "content", "")
			},
			want: "content: \n",
		},
		{
			name: "map_natural_order",
			write: func(tw *TreeWriter) {
				tw.Map(1, "widths", map[string]string{"col10": "1", "col9": "2", "col1": ""})
			},
			want: "  widths: col1= col9=\"2\" col10=\"1\"\n",
		},
		{
			name: "map_empty",
			write: func(tw *TreeWriter) {
				tw.Map(0, "props", nil)
				tw.Line(0, "after")
			},
			want: "after\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tt.write(tw)
			if got := tw.String(); got != tt.want {
				t.Errorf("got\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}
