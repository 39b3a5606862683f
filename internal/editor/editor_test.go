package editor

import (
	"errors"
	"testing"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/google/go-cmp/cmp"
)

type voidFields struct{}

func (voidFields) Name() string { return "test-fields" }
func (voidFields) IsInline(n *doctree.Node) bool { return doctree.IsInline(n) }
func (voidFields) IsVoid(n *doctree.Node) bool { return doctree.IsVoid(n) }

type adminOnly struct{}

func (adminOnly) Name() string { return "test-admin-only" }
func (adminOnly) AllowEdit(role Role, _ Edit) bool { return role == RoleAdmin }

func newEditor(t *testing.T, tree doctree.Tree, policies ...Policy) *Editor {
	t.Helper()
	e, err := New(tree, append([]Policy{voidFields{}}, policies...)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return e
}

func pt(offset int, path ...int) doctree.Point {
	return doctree.Point{Path: doctree.Path(path), Offset: offset}
}

func texts(e *Editor, block int) []string {
	var out []string
	for _, c := range e.Children()[block].Children {
		if c.IsField() {
			out = append(out, "{"+c.ID+"}")
			continue
		}
		out = append(out, c.Text)
	}
	return out
}

func TestNew_RejectsEmptyDocument(t *testing.T) {
	if _, err := New(doctree.Tree{}); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestRemoveNode_LastBlockRefused(t *testing.T) {
	e := newEditor(t, doctree.Tree{doctree.Paragraph(doctree.Text("only"))})
	if err := e.RemoveNode(doctree.Path{0}); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if e.Len() != 1 {
		t.Errorf("expected 1 block to remain, got %d", e.Len())
	}
}

func TestNew_NormalizesTextAroundFields(t *testing.T) {
	e := newEditor(t, doctree.Tree{doctree.Paragraph(doctree.Field("a", "", 0), doctree.Field("b", "", 1))})
	want := []string{"", "{a}", "", "{b}", ""}
	if diff := cmp.Diff(want, texts(e, 0)); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
}

func TestPolicies_DispatchOrder(t *testing.T) {
	e := newEditor(t, doctree.Tree{doctree.Paragraph(doctree.Text("x"))}, adminOnly{})
	if diff := cmp.Diff([]string{"test-fields", "test-admin-only"}, e.Policies()); diff != "" {
		t.Errorf("policies mismatch (-want +got):\n%s", diff)
	}
	if !e.IsVoid(doctree.Field("f", "", 0)) || e.IsVoid(doctree.Paragraph()) {
		t.Error("expected only fields to be void")
	}
}

func TestInsertInline_ReplacesSelection(t *testing.T) {
	e := newEditor(t, doctree.Tree{doctree.Paragraph(doctree.Text("Hello World"))})
	if err := e.Select(doctree.Range{Anchor: pt(6, 0, 0), Focus: pt(11, 0, 0)}); err != nil {
		t.Fatalf("select: %v", err)
	}
	at, err := e.InsertInline(doctree.Field("f1", "World", 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !at.Equal(doctree.Path{0, 1}) {
		t.Errorf("expected field at [0 1], got %v", at)
	}
	if diff := cmp.Diff([]string{"Hello ", "{f1}", ""}, texts(e, 0)); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	sel, ok := e.Selection()
	if !ok || !sel.IsCollapsed() || !sel.Anchor.Path.Equal(doctree.Path{0, 2}) {
		t.Errorf("expected cursor after field, got %+v", sel)
	}
}

func TestDeleteRange_AcrossBlocks(t *testing.T) {
	e := newEditor(t, doctree.Tree{
		doctree.Paragraph(doctree.Text("abc")),
		doctree.Paragraph(doctree.Text("def")),
		doctree.Paragraph(doctree.Text("ghi")),
	})
	if err := e.DeleteRange(doctree.Range{Anchor: pt(1, 0, 0), Focus: pt(2, 2, 0)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Len() != 1 {
		t.Fatalf("expected 1 block, got %d", e.Len())
	}
	if diff := cmp.Diff([]string{"ai"}, texts(e, 0)); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	sel, _ := e.Selection()
	if !sel.Anchor.Equal(pt(1, 0, 0)) {
		t.Errorf("expected cursor at start of deleted range, got %+v", sel.Anchor)
	}
}

func TestSetTextProps_SplitsEdges(t *testing.T) {
	e := newEditor(t, doctree.Tree{doctree.Paragraph(doctree.Text("Hello World"))})
	n, err := e.SetTextProps(doctree.Range{Anchor: pt(2, 0, 0), Focus: pt(7, 0, 0)}, func(run *doctree.Node) {
		run.Editable = doctree.Bool(true)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 run updated, got %d", n)
	}
	want := doctree.Paragraph(doctree.Text("He"), doctree.EditableText("llo W", true), doctree.Text("orld"))
	if diff := cmp.Diff(want, e.Children()[0]); diff != "" {
		t.Errorf("block mismatch (-want +got):\n%s", diff)
	}
}

func TestSetTextProps_CollapsedIsNoop(t *testing.T) {
	e := newEditor(t, doctree.Tree{doctree.Paragraph(doctree.Text("abc"))})
	var changes int
	e.OnChange(func(Change) { changes++ })
	n, err := e.SetTextProps(doctree.Collapsed(pt(1, 0, 0)), func(run *doctree.Node) { run.Editable = doctree.Bool(true) })
	if err != nil || n != 0 || changes != 0 {
		t.Errorf("expected no-op, got n=%d changes=%d err=%v", n, changes, err)
	}
}

func TestOnChange_OneNotificationPerBatch(t *testing.T) {
	e := newEditor(t, doctree.Tree{doctree.Paragraph(doctree.Text("a")), doctree.Paragraph(doctree.Text("b"))})
	var got []Change
	e.OnChange(func(c Change) { got = append(got, c) })

	err := e.Batch(func() error {
		if err := e.InsertNode(doctree.Path{2}, doctree.Paragraph(doctree.Text("c"))); err != nil {
			return err
		}
		return e.RemoveNode(doctree.Path{0})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 change, got %d", len(got))
	}
	if len(got[0].Ops) != 2 || got[0].SelectionOnly() {
		t.Errorf("expected 2 content ops, got %+v", got[0].Ops)
	}
	if len(got[0].Children) != 2 || got[0].Children[1].PlainText() != "c" {
		t.Errorf("unexpected snapshot %+v", got[0].Children)
	}

	if err := e.Select(doctree.Collapsed(pt(0, 0, 0))); err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(got) != 2 || !got[1].SelectionOnly() {
		t.Errorf("expected a selection-only change, got %+v", got)
	}
}

func TestDeleteBackward_Character(t *testing.T) {
	e := newEditor(t, doctree.Tree{doctree.Paragraph(doctree.Text("abc"))})
	_ = e.Select(doctree.Collapsed(pt(2, 0, 0)))
	ok, err := e.DeleteBackward(RoleAdmin)
	if err != nil || !ok {
		t.Fatalf("expected deletion, got ok=%v err=%v", ok, err)
	}
	if got := e.Children()[0].PlainText(); got != "ac" {
		t.Errorf("expected %q, got %q", "ac", got)
	}
	sel, _ := e.Selection()
	if !sel.Anchor.Equal(pt(1, 0, 0)) {
		t.Errorf("expected cursor at 1, got %+v", sel.Anchor)
	}
}

func TestDeleteBackward_RemovesFieldBeforeCursor(t *testing.T) {
	e := newEditor(t, doctree.Tree{doctree.Paragraph(doctree.Text("a"), doctree.Field("f", "", 0), doctree.Text("b"))})
	_ = e.Select(doctree.Collapsed(pt(0, 0, 2)))
	ok, err := e.DeleteBackward(RoleAdmin)
	if err != nil || !ok {
		t.Fatalf("expected deletion, got ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, texts(e, 0)); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	sel, _ := e.Selection()
	if !sel.Anchor.Equal(pt(0, 0, 1)) {
		t.Errorf("expected cursor to follow its run, got %+v", sel.Anchor)
	}
}

func TestDeleteBackward_MergesBlocks(t *testing.T) {
	e := newEditor(t, doctree.Tree{doctree.Paragraph(doctree.Text("ab")), doctree.Paragraph(doctree.Text("cd"))})
	_ = e.Select(doctree.Collapsed(pt(0, 1, 0)))
	ok, err := e.DeleteBackward(RoleAdmin)
	if err != nil || !ok {
		t.Fatalf("expected deletion, got ok=%v err=%v", ok, err)
	}
	if e.Len() != 1 || e.Children()[0].PlainText() != "abcd" {
		t.Errorf("expected merged block, got %+v", e.Children())
	}
	sel, _ := e.Selection()
	if !sel.Anchor.Equal(pt(0, 0, 1)) {
		t.Errorf("expected cursor at start of merged run, got %+v", sel.Anchor)
	}
}

func TestDeleteForward_AtDocumentEndIsNoop(t *testing.T) {
	e := newEditor(t, doctree.Tree{doctree.Paragraph(doctree.Text("ab"))})
	_ = e.Select(doctree.Collapsed(pt(2, 0, 0)))
	ok, err := e.DeleteForward(RoleAdmin)
	if err != nil || ok {
		t.Errorf("expected no-op, got ok=%v err=%v", ok, err)
	}
}

func TestEditPolicy_VetoLeavesTreeUntouched(t *testing.T) {
	e := newEditor(t, doctree.Tree{doctree.Paragraph(doctree.Text("abc"))}, adminOnly{})
	_ = e.Select(doctree.Collapsed(pt(3, 0, 0)))
	var changes int
	e.OnChange(func(Change) { changes++ })

	if ok, _ := e.DeleteBackward(RoleEndUser); ok {
		t.Error("expected end-user deletion to be refused")
	}
	if ok, _ := e.InsertText(RoleEndUser, "x"); ok {
		t.Error("expected end-user insertion to be refused")
	}
	if changes != 0 || e.Children()[0].PlainText() != "abc" {
		t.Errorf("expected untouched tree, got %q after %d changes", e.Children()[0].PlainText(), changes)
	}
	if ok, _ := e.InsertText(RoleAdmin, "d"); !ok {
		t.Error("expected admin insertion to succeed")
	}
	if got := e.Children()[0].PlainText(); got != "abcd" {
		t.Errorf("expected %q, got %q", "abcd", got)
	}
}

func TestToggleBlockAndAlignment(t *testing.T) {
	e := newEditor(t, doctree.Tree{
		doctree.Paragraph(doctree.Text("a")),
		doctree.Heading(doctree.KindHeading2, doctree.Text("b")),
	})
	_ = e.Select(doctree.Range{Anchor: pt(0, 0, 0), Focus: pt(1, 1, 0)})

	if n, err := e.SetAlignment(doctree.AlignCenter); err != nil || n != 1 {
		t.Errorf("expected 1 paragraph aligned, got n=%d err=%v", n, err)
	}
	if _, err := e.ToggleBlock(doctree.KindHeading2); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	for i, b := range e.Children() {
		if b.Kind != doctree.KindParagraph {
			t.Errorf("block %d: expected paragraph after toggling an active heading, got %s", i, b.Kind)
		}
	}
	if _, err := e.ToggleBlock(doctree.KindHeading1); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if e.Children()[0].Kind != doctree.KindHeading1 {
		t.Errorf("expected heading1, got %s", e.Children()[0].Kind)
	}
	if got := e.Children()[0].Align; got != doctree.AlignNone {
		t.Errorf("expected heading alignment cleared, got %q", got)
	}
	if err := e.Children().Validate(); err != nil {
		t.Errorf("tree invalid after toggle: %v", err)
	}
	if _, err := e.ToggleBlock(doctree.KindField); err == nil {
		t.Error("expected error for non-block kind")
	}
}
