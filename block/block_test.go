package block

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
)

func render(t *testing.T, reg *Registry, b *Block) string {
	t.Helper()
	doc := etree.NewDocument()
	body := doc.CreateElement("body")
	if err := reg.Render(body, b); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out, err := doc.WriteToString()
	if err != nil {
		t.Fatalf("WriteToString() error = %v", err)
	}
	return out
}

func TestParseType(t *testing.T) {
	for _, name := range TypeNames() {
		typ, err := ParseType(name)
		if err != nil {
			t.Fatalf("ParseType(%q) error = %v", name, err)
		}
		if typ.String() != name {
			t.Errorf("String() = %q, want %q", typ.String(), name)
		}
	}
	if _, err := ParseType("video"); err == nil {
		t.Error("ParseType(video) expected error")
	}
	if _, err := Type(42).MarshalText(); err == nil {
		t.Error("MarshalText() of unknown type expected error")
	}
}

func TestIsEmptyMarkup(t *testing.T) {
	tests := []struct {
		markup string
		want   bool
	}{
		{"", true},
		{"   ", true},
		{"<br>", true},
		{"&nbsp;", true},
		{"<b> </b>", true},
		{"x", false},
		{`<img src="a.png">`, false},
		{"<i>y</i>", false},
	}
	for _, tt := range tests {
		if got := IsEmptyMarkup(tt.markup); got != tt.want {
			t.Errorf("IsEmptyMarkup(%q) = %v, want %v", tt.markup, got, tt.want)
		}
	}
}

func TestProps(t *testing.T) {
	var p Props
	p.Set("align", "left")
	p.Set("color", "red")
	p.Set("align", "center")
	if len(p) != 2 || p[0].Name != "align" || p[0].Value != "center" {
		t.Fatalf("Props = %+v", p)
	}

	n := &html.Node{Type: html.ElementNode, Data: "p", Attr: []html.Attribute{{Key: "class", Val: "x"}, {Key: "data-props-old", Val: "1"}}}
	ApplyProps(n, p)
	back := PropsFromAttrs(n.Attr)
	if !back.Equal(p) {
		t.Errorf("decoded %+v, want %+v", back, p)
	}
	if len(n.Attr) != 3 || n.Attr[0].Key != "class" {
		t.Errorf("attrs = %+v", n.Attr)
	}
	if IsPropsAttr("data-props-") || IsPropsAttr("data-prop-x") {
		t.Error("IsPropsAttr() accepted malformed names")
	}

	p.Delete("align")
	if _, ok := p.Get("align"); ok {
		t.Error("Delete() did not remove property")
	}
}

func TestBlock_Text(t *testing.T) {
	q := Block{ID: "q", Type: TypeQuote, Content: QuoteContent{Cite: QuotePart{Content: "cite"}}}
	if err := q.SetText(PartCaption, "who"); err != nil {
		t.Fatalf("SetText() error = %v", err)
	}
	if s, _ := q.Text(PartCaption); s != "who" {
		t.Errorf("caption = %q", s)
	}
	if s, _ := q.Text(PartCite); s != "cite" {
		t.Errorf("cite = %q", s)
	}
	if err := q.SetText(PartMain, "x"); err == nil {
		t.Error("SetText() on quote main part expected error")
	}

	d := Block{Type: TypeDivider}
	if _, err := d.Text(PartMain); err == nil {
		t.Error("Text() on divider expected error")
	}
	if d.IsEmpty() {
		t.Error("divider must not be empty")
	}
}

func TestBlock_CloneIsDeep(t *testing.T) {
	tbl := NewTable(1, 1)
	b := Block{ID: "t", Type: TypeTable, Content: tbl, Props: Props{{"a", "1"}}, Options: Options{"header": true}}
	c := b.Clone()

	tbl.Rows[0][0].Content = "changed"
	b.Props[0].Value = "2"
	b.Options["header"] = false

	ct := c.Content.(*Table)
	if ct.Rows[0][0].Content != "" || c.Props[0].Value != "1" || c.Options["header"] != true {
		t.Errorf("clone shares state with original: %+v", c)
	}
}

func TestOptions(t *testing.T) {
	o := Merge(Options{"level": 2, "x": "factory"}, Options{"x": "document"}, nil, Options{"level": float64(4)})
	if o.Int("level", 0) != 4 {
		t.Errorf("level = %v", o["level"])
	}
	if o.String("x", "") != "document" {
		t.Errorf("x = %v", o["x"])
	}
	if o.Bool("missing", true) != true {
		t.Error("Bool() default not used")
	}
}

func TestRegistry_Empty(t *testing.T) {
	reg := DefaultRegistry()
	for _, typ := range reg.Types() {
		b, err := reg.Empty(typ)
		if err != nil {
			t.Fatalf("Empty(%s) error = %v", typ, err)
		}
		if b.ID != "" {
			t.Errorf("Empty(%s) assigned id", typ)
		}
		if typ != TypeDivider && !b.IsEmpty() {
			t.Errorf("Empty(%s) is not empty", typ)
		}
	}

	b, err := reg.Empty(TypeTable, Options{"rows": 3}, Options{"columns": 4})
	if err != nil {
		t.Fatalf("Empty(table) error = %v", err)
	}
	tbl := b.Content.(*Table)
	if tbl.RowCount() != 3 || tbl.Columns() != 4 {
		t.Errorf("table is %dx%d, want 3x4", tbl.RowCount(), tbl.Columns())
	}

	if _, err := NewRegistry().Empty(TypeParagraph); !errors.Is(err, ErrUnknownType) {
		t.Errorf("Empty() on empty registry error = %v", err)
	}
}

func TestRender(t *testing.T) {
	reg := DefaultRegistry()
	w := 80.0

	tests := []struct {
		name  string
		block Block
		want  string
	}{
		{
			name:  "paragraph",
			block: Block{ID: "b1", Type: TypeParagraph, Content: "Hello <b>big</b>", Props: Props{{"align", "center"}}},
			want:  `<body><p data-block-id="b1" data-props-align="center" style="text-align: center">Hello <b>big</b></p></body>`,
		},
		{
			name:  "heading_clamped",
			block: Block{Type: TypeHeading, Content: "Title", Options: Options{"level": 9}},
			want:  `<body><h6>Title</h6></body>`,
		},
		{
			name:  "code",
			block: Block{Type: TypeCode, Content: "x &lt; <b>y</b>", Options: Options{"language": "go"}},
			want:  `<body><pre><code class="language-go">x &lt; y</code></pre></body>`,
		},
		{
			name: "nested_list",
			block: Block{Type: TypeList, Options: Options{"style": "ordered"}, Content: []ListItem{
				{Content: "one", Children: []ListItem{{Content: "two"}}},
			}},
			want: `<body><ol><li>one<ol><li>two</li></ol></li></ol></body>`,
		},
		{
			name:  "image_uploading",
			block: Block{Type: TypeImage, Content: ImageContent{Src: "data:x", Alt: "pic", Uploading: true}},
			want:  `<body><figure class="image uploading"><img src="data:x" alt="pic"/></figure></body>`,
		},
		{
			name:  "quote",
			block: Block{Type: TypeQuote, Content: QuoteContent{Cite: QuotePart{Content: "Words"}, Caption: &QuotePart{Content: "Author"}}},
			want:  `<body><figure class="quote"><blockquote>Words</blockquote><figcaption>Author</figcaption></figure></body>`,
		},
		{
			name: "table",
			block: Block{Type: TypeTable, Content: &Table{Rows: [][]Cell{{
				{Content: "a", Options: CellOptions{Colspan: 1, Rowspan: 1, Width: &w}},
				{Content: "b", Options: CellOptions{Colspan: 2, Rowspan: 1}},
			}}}},
			want: `<body><table><tbody><tr><td style="width: 80px">a</td><td colspan="2">b</td></tr></tbody></table></body>`,
		},
		{
			name:  "divider",
			block: Block{ID: "d", Type: TypeDivider},
			want:  `<body><hr data-block-id="d"/></body>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, reg, &tt.block); got != tt.want {
				t.Errorf("Render() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestBlockJSON(t *testing.T) {
	data := `[
		{"id":"1","type":"paragraph","content":"Hi","props":[{"name":"align","value":"right"}],"options":{}},
		{"id":"2","type":"image","content":{"src":"a.png","alt":"A"},"options":{}},
		{"id":"3","type":"table","content":[[{"content":"x","props":[],"styles":{},"options":{"colspan":1,"rowspan":1}}]],"options":{}},
		{"id":"4","type":"list","content":[{"content":"i","props":[],"children":[{"content":"j","props":[],"children":[]}]}],"options":{"style":"ordered"}},
		{"id":"5","type":"quote","content":{"cite":{"content":"c","props":[]}},"options":{}},
		{"id":"6","type":"divider","content":null,"options":{}}
	]`
	var blocks []Block
	if err := json.Unmarshal([]byte(data), &blocks); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if s := blocks[0].Content.(string); s != "Hi" {
		t.Errorf("paragraph content = %q", s)
	}
	if v, _ := blocks[0].Props.Get("align"); v != "right" {
		t.Errorf("paragraph align = %q", v)
	}
	if img := blocks[1].Content.(ImageContent); img.Src != "a.png" {
		t.Errorf("image = %+v", img)
	}
	if tbl := blocks[2].Content.(*Table); tbl.Rows[0][0].Content != "x" {
		t.Errorf("table = %+v", tbl)
	}
	if items := blocks[3].Content.([]ListItem); items[0].Children[0].Content != "j" {
		t.Errorf("list = %+v", items)
	}
	if q := blocks[4].Content.(QuoteContent); q.Caption != nil || q.Cite.Content != "c" {
		t.Errorf("quote = %+v", q)
	}
	if blocks[5].Content != nil {
		t.Errorf("divider content = %v", blocks[5].Content)
	}

	out, err := json.Marshal(blocks[2])
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back Block
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal() of marshaled table error = %v", err)
	}
	if !back.Content.(*Table).Equal(blocks[2].Content.(*Table)) {
		t.Error("table changed after round trip")
	}

	bad := `{"id":"x","type":"table","content":[[{"content":"a"}],[]],"options":{}}`
	if err := json.Unmarshal([]byte(bad), &back); !errors.Is(err, ErrNotRectangular) {
		t.Errorf("ragged table error = %v", err)
	}
}
