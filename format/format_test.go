package format

import (
	"testing"

	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"cbe/dom"
)

func setup(t *testing.T, markup string, options ...Option) (*Engine, *html.Node, *dom.Selection) {
	t.Helper()
	host := dom.Element("p")
	if err := dom.SetInnerHTML(host, markup); err != nil {
		t.Fatalf("SetInnerHTML() error = %v", err)
	}
	sel := dom.NewSelection()
	return New(host, sel, zaptest.NewLogger(t), options...), host, sel
}

func assertSelection(t *testing.T, host *html.Node, sel *dom.Selection, a, b int) {
	t.Helper()
	sa, sb, ok := sel.TextOffsets(host)
	if !ok {
		t.Fatal("selection is not inside host")
	}
	if sa != a || sb != b {
		t.Errorf("selection = [%d, %d), want [%d, %d)", sa, sb, a, b)
	}
}

func TestToggleWrap_Twice(t *testing.T) {
	e, host, sel := setup(t, "Hello")
	sel.SelectText(host, 0, 5)

	if !e.ToggleWrap("strong", Style{}) {
		t.Fatal("first ToggleWrap() did nothing")
	}
	if got := dom.InnerHTML(host); got != "<strong>Hello</strong>" {
		t.Errorf("after first toggle = %q", got)
	}
	assertSelection(t, host, sel, 0, 5)

	if !e.ToggleWrap("strong", Style{}) {
		t.Fatal("second ToggleWrap() did nothing")
	}
	if got := dom.InnerHTML(host); got != "Hello" {
		t.Errorf("after second toggle = %q", got)
	}
	assertSelection(t, host, sel, 0, 5)
}

func TestToggleWrap_Idempotent(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		a, b   int
	}{
		{"middle", "one two three", 4, 7},
		{"start", "one two three", 0, 3},
		{"across markup", "one <em>two</em> three", 2, 6},
		{"inside other tag", "<em>emphasized text</em>", 2, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, host, sel := setup(t, tt.markup)
			before := dom.InnerHTML(host)
			sel.SelectText(host, tt.a, tt.b)
			e.ToggleWrap("strong", Style{})
			e.ToggleWrap("strong", Style{})
			if got := dom.InnerHTML(host); got != before {
				t.Errorf("markup = %q, want %q", got, before)
			}
			assertSelection(t, host, sel, tt.a, tt.b)
		})
	}
}

func TestWrapUnwrap_RoundTrip(t *testing.T) {
	for _, tag := range []string{"strong", "em", "span", "mark"} {
		t.Run(tag, func(t *testing.T) {
			e, host, sel := setup(t, "alpha <u>beta</u> gamma")
			text := dom.TextContent(host)
			sel.SelectText(host, 3, 13)
			if !e.Wrap(tag, Style{}) {
				t.Fatal("Wrap() did nothing")
			}
			if !e.Unwrap(tag) {
				t.Fatal("Unwrap() did nothing")
			}
			if got := dom.TextContent(host); got != text {
				t.Errorf("text = %q, want %q", got, text)
			}
			if got := dom.InnerHTML(host); got != "alpha <u>beta</u> gamma" {
				t.Errorf("markup = %q", got)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	e, host, sel := setup(t, "Hello world")
	sel.SelectText(host, 6, 11)
	e.Wrap("em", Style{Classes: []string{"hl"}})
	if got := dom.InnerHTML(host); got != `Hello <em class="hl">world</em>` {
		t.Errorf("markup = %q", got)
	}
	assertSelection(t, host, sel, 6, 11)
}

func TestWrap_ExactMatchMerges(t *testing.T) {
	e, host, sel := setup(t, `<span style="color: red" class="a">Hi</span>!`)
	sel.SelectText(host, 0, 2)
	e.Wrap("span", Style{
		Styles:  map[string]string{"font-weight": "bold", "color": "blue"},
		Classes: []string{"b"},
		Attrs:   map[string]string{"title": "t"},
	})
	want := `<span style="color: blue; font-weight: bold" class="a b" title="t">Hi</span>!`
	if got := dom.InnerHTML(host); got != want {
		t.Errorf("markup = %q, want %q", got, want)
	}
}

func TestWrapOrSplit(t *testing.T) {
	blue := Style{Styles: map[string]string{"color": "blue"}}
	tests := []struct {
		name string
		a, b int
		want string
	}{
		{"middle", 2, 4, `<span class="x">ab</span><span class="x" style="color: blue">cd</span><span class="x">ef</span>`},
		{"prefix", 0, 2, `<span class="x" style="color: blue">ab</span><span class="x">cdef</span>`},
		{"suffix", 4, 6, `<span class="x">abcd</span><span class="x" style="color: blue">ef</span>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, host, sel := setup(t, `<span class="x">abcdef</span>`)
			sel.SelectText(host, tt.a, tt.b)
			if !e.WrapOrSplit("span", blue) {
				t.Fatal("WrapOrSplit() did nothing")
			}
			if got := dom.InnerHTML(host); got != tt.want {
				t.Errorf("markup = %q, want %q", got, tt.want)
			}
			assertSelection(t, host, sel, tt.a, tt.b)
		})
	}
}

func TestWrapOrSplit_Overlap(t *testing.T) {
	blue := Style{Styles: map[string]string{"color": "blue"}}
	tests := []struct {
		name   string
		markup string
		tag    string
		style  Style
		a, b   int
		want   string
	}{
		{"start inside", `<strong>abc</strong>def`, "strong", Style{}, 1, 4, `<strong>abcd</strong>ef`},
		{"end inside", `abc<strong>def</strong>`, "strong", Style{}, 1, 4, `a<strong>bcdef</strong>`},
		{"contains", `a<strong>b</strong>c`, "strong", Style{}, 0, 3, `<strong>abc</strong>`},
		{"both ends", `<em>ab</em>c<em>de</em>`, "em", Style{}, 1, 4, `<em>abcde</em>`},
		{"start inside styled", `<span class="x">abc</span>def`, "span", blue, 1, 4,
			`<span class="x">a</span><span class="x" style="color: blue">bcd</span>ef`},
		{"end inside styled", `abc<span class="x">def</span>`, "span", blue, 1, 4,
			`a<span class="x" style="color: blue">bcd</span><span class="x">ef</span>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, host, sel := setup(t, tt.markup)
			sel.SelectText(host, tt.a, tt.b)
			if !e.WrapOrSplit(tt.tag, tt.style) {
				t.Fatal("WrapOrSplit() did nothing")
			}
			if got := dom.InnerHTML(host); got != tt.want {
				t.Errorf("markup = %q, want %q", got, tt.want)
			}
			assertSelection(t, host, sel, tt.a, tt.b)
		})
	}
}

func TestUnwrap_EnclosingAncestor(t *testing.T) {
	e, host, sel := setup(t, "a <strong>bold text</strong> b")
	sel.SelectText(host, 2, 6)
	if !e.Unwrap("strong") {
		t.Fatal("Unwrap() did nothing")
	}
	if got := dom.InnerHTML(host); got != "a bold text b" {
		t.Errorf("markup = %q", got)
	}
	assertSelection(t, host, sel, 2, 6)

	if e.Unwrap("strong") {
		t.Error("Unwrap() without matching element reported success")
	}
}

func TestNoOps(t *testing.T) {
	e, host, sel := setup(t, "text")
	before := dom.InnerHTML(host)

	if e.Wrap("b", Style{}) {
		t.Error("Wrap() without selection")
	}
	sel.SelectText(host, 2, 2)
	if e.ToggleWrap("b", Style{}) || e.Unwrap("b") {
		t.Error("collapsed selection mutated")
	}
	outside := dom.Element("p")
	outside.AppendChild(dom.Text("other"))
	sel.Set(dom.Contents(outside))
	if e.Wrap("b", Style{}) {
		t.Error("selection outside host mutated")
	}
	if _, ok := e.BeginLink(); ok {
		t.Error("BeginLink() with outside selection")
	}
	if got := dom.InnerHTML(host); got != before {
		t.Errorf("markup = %q", got)
	}
}

func TestSetAlignment(t *testing.T) {
	host := dom.Element("div", "class", "aligned")
	_ = dom.SetInnerHTML(host, "<p>one <b>two</b></p><p>three</p>")
	sel := dom.NewSelection()
	sel.SelectText(host, 5, 5)

	e := New(host, sel, nil)
	if !e.SetAlignment("right") {
		t.Fatal("SetAlignment() did nothing")
	}
	want := `<p style="text-align: right" data-props-align="right">one <b>two</b></p><p>three</p>`
	if got := dom.InnerHTML(host); got != want {
		t.Errorf("markup = %q, want %q", got, want)
	}

	// required class puts alignment on host instead
	e = New(host, sel, nil, WithAlignmentClass("aligned"))
	e.SetAlignment("center")
	if v, _ := StyleValue(host, "text-align"); v != "center" {
		t.Errorf("host text-align = %q", v)
	}
	if v, _ := dom.Attr(host, "data-props-align"); v != "center" {
		t.Errorf("host data-props-align = %q", v)
	}
}

func TestLinkFlow(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		e, host, sel := setup(t, "visit site")
		sel.SelectText(host, 6, 10)
		draft, ok := e.BeginLink()
		if !ok || draft.Editing() || draft.Text != "site" {
			t.Fatalf("BeginLink() = %+v, %v", draft, ok)
		}
		if got := dom.TextContent(host); got != "visit site" {
			t.Errorf("text while drafting = %q", got)
		}
		// focus moved elsewhere meanwhile
		sel.Clear()
		if !e.CompleteLink(draft, map[string]string{"href": "https://example.com"}, true) {
			t.Fatal("CompleteLink() failed")
		}
		if got := dom.InnerHTML(host); got != `visit <a href="https://example.com">site</a>` {
			t.Errorf("markup = %q", got)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		e, host, sel := setup(t, "visit site")
		sel.SelectText(host, 6, 10)
		draft, _ := e.BeginLink()
		e.CompleteLink(draft, nil, false)
		if got := dom.InnerHTML(host); got != "visit site" {
			t.Errorf("markup = %q", got)
		}
		assertSelection(t, host, sel, 6, 10)
	})

	t.Run("edit existing", func(t *testing.T) {
		e, host, sel := setup(t, `<a href="old">x</a>`)
		sel.SelectText(host, 0, 1)
		draft, _ := e.BeginLink()
		if !draft.Editing() || draft.Attrs["href"] != "old" {
			t.Fatalf("draft = %+v", draft)
		}
		e.CompleteLink(draft, map[string]string{"href": "new"}, true)
		if got := dom.InnerHTML(host); got != `<a href="new">x</a>` {
			t.Errorf("markup = %q", got)
		}
	})

	t.Run("marker lost", func(t *testing.T) {
		e, host, sel := setup(t, "visit site")
		sel.SelectText(host, 0, 5)
		draft, _ := e.BeginLink()
		dom.RemoveChildren(host)
		if e.CompleteLink(draft, map[string]string{"href": "x"}, true) {
			t.Error("CompleteLink() succeeded without marker")
		}
		if _, ok := sel.Range(); ok {
			t.Error("selection not cleared")
		}
		if e.CompleteLink(draft, nil, true) {
			t.Error("draft completed twice")
		}
	})
}

func TestRememberRestore(t *testing.T) {
	e, host, sel := setup(t, "abc def")
	sel.SelectText(host, 4, 7)
	if !e.Remember() {
		t.Fatal("Remember() failed")
	}
	sel.Clear()
	if !e.Restore() {
		t.Fatal("Restore() failed")
	}
	assertSelection(t, host, sel, 4, 7)
	if e.Restore() {
		t.Error("second Restore() succeeded")
	}
}

func TestNotifier(t *testing.T) {
	hub := dom.NewHub()
	e, host, sel := setup(t, "abc")
	e = New(host, sel, nil, WithNotifier(hub))
	var got int
	sub := hub.Observe(host, dom.ObserveOptions{ChildList: true, Subtree: true}, func(r []dom.Record) { got += len(r) })
	defer sub.Disconnect()

	sel.SelectText(host, 0, 3)
	e.Wrap("b", Style{})
	if got == 0 {
		t.Error("no change records delivered")
	}
}

func TestCommands(t *testing.T) {
	c, err := LookupCommand("Bold")
	if err != nil || c.Tag != "strong" {
		t.Fatalf("LookupCommand() = %+v, %v", c, err)
	}
	if _, err := LookupCommand("blink"); err == nil {
		t.Error("unknown command accepted")
	}

	e, host, sel := setup(t, "abc")
	sel.SelectText(host, 0, 3)
	c, _ = LookupCommand("italic")
	e.Apply(c)
	if got := dom.InnerHTML(host); got != "<em>abc</em>" {
		t.Errorf("markup = %q", got)
	}
}

func TestMergeStyles(t *testing.T) {
	tests := []struct {
		existing string
		add      map[string]string
		want     string
	}{
		{"", map[string]string{"color": "red"}, "color: red"},
		{"color: red;font-weight:bold", map[string]string{"color": "blue"}, "color: blue; font-weight: bold"},
		{"border: 1px solid red", map[string]string{"b": "x", "a": "y"}, "border: 1px solid red; a: y; b: x"},
	}
	for _, tt := range tests {
		if got := mergeStyles(tt.existing, tt.add); got != tt.want {
			t.Errorf("mergeStyles(%q) = %q, want %q", tt.existing, got, tt.want)
		}
	}
}
