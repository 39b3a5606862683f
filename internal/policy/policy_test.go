package policy

import (
	"testing"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/editor"
	"github.com/dgallion1/docfill/internal/fields"
)

func newEditor(t *testing.T, tree doctree.Tree) *editor.Editor {
	t.Helper()
	e, err := editor.New(tree, fields.Policy{}, Editability{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return e
}

func cursor(t *testing.T, e *editor.Editor, offset int, path ...int) {
	t.Helper()
	pt := doctree.Point{Path: doctree.Path(path), Offset: offset}
	if err := e.Select(doctree.Collapsed(pt)); err != nil {
		t.Fatalf("select: %v", err)
	}
}

func TestCanEdit(t *testing.T) {
	tests := []struct {
		name string
		role editor.Role
		run  *doctree.Node
		want bool
	}{
		{"admin unset", editor.RoleAdmin, doctree.Text("x"), true},
		{"admin locked", editor.RoleAdmin, doctree.EditableText("x", false), true},
		{"end-user unset", editor.RoleEndUser, doctree.Text("x"), false},
		{"end-user locked", editor.RoleEndUser, doctree.EditableText("x", false), false},
		{"end-user editable", editor.RoleEndUser, doctree.EditableText("x", true), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEdit(tt.role, tt.run); got != tt.want {
				t.Errorf("CanEdit = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeleteBackward_Guard(t *testing.T) {
	tests := []struct {
		name    string
		role    editor.Role
		run     *doctree.Node
		want    string
		allowed bool
	}{
		{"end-user unset rejected", editor.RoleEndUser, doctree.Text("abc"), "abc", false},
		{"end-user locked rejected", editor.RoleEndUser, doctree.EditableText("abc", false), "abc", false},
		{"end-user editable accepted", editor.RoleEndUser, doctree.EditableText("abc", true), "ac", true},
		{"admin locked accepted", editor.RoleAdmin, doctree.EditableText("abc", false), "ac", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEditor(t, doctree.Tree{doctree.Paragraph(tt.run)})
			cursor(t, e, 2, 0, 0)

			ok, err := e.DeleteBackward(tt.role)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.allowed {
				t.Errorf("allowed = %v, want %v", ok, tt.allowed)
			}
			if got := e.Children()[0].Children[0].Text; got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeleteForward_BlockMergeNeedsBothSides(t *testing.T) {
	e := newEditor(t, doctree.Tree{
		doctree.Paragraph(doctree.EditableText("ab", true)),
		doctree.Paragraph(doctree.Text("cd")),
	})
	cursor(t, e, 2, 0, 0)

	ok, err := e.DeleteForward(editor.RoleEndUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || e.Len() != 2 {
		t.Errorf("expected merge to be refused, ok=%v blocks=%d", ok, e.Len())
	}
}

func TestDeleteBackward_EndUserCannotRemoveField(t *testing.T) {
	e := newEditor(t, doctree.Tree{doctree.Paragraph(
		doctree.EditableText("a", true), doctree.Field("f", "F", 0), doctree.EditableText("b", true),
	)})
	cursor(t, e, 0, 0, 2)

	if ok, _ := e.DeleteBackward(editor.RoleEndUser); ok {
		t.Fatal("expected field removal to be refused")
	}
	if len(e.Nodes((*doctree.Node).IsField)) != 1 {
		t.Error("field was removed")
	}
	if ok, _ := e.DeleteBackward(editor.RoleAdmin); !ok {
		t.Fatal("expected admin to remove the field")
	}
	if len(e.Nodes((*doctree.Node).IsField)) != 0 {
		t.Error("field still present")
	}
}

func TestInsertText_Guard(t *testing.T) {
	e := newEditor(t, doctree.Tree{doctree.Paragraph(doctree.Text("locked "), doctree.EditableText("open", true))})

	cursor(t, e, 2, 0, 0)
	if ok, _ := e.InsertText(editor.RoleEndUser, "x"); ok {
		t.Error("expected insert into locked run to be refused")
	}
	cursor(t, e, 2, 0, 1)
	if ok, err := e.InsertText(editor.RoleEndUser, "x"); !ok || err != nil {
		t.Fatalf("expected insert, got ok=%v err=%v", ok, err)
	}
	if got := e.Children()[0].Children[1].Text; got != "opxen" {
		t.Errorf("text = %q, want %q", got, "opxen")
	}
}

func TestMarkSelectionEditable_SplitsAtEdges(t *testing.T) {
	e := newEditor(t, doctree.Tree{doctree.Paragraph(doctree.Text("Hello world"))})
	err := e.Select(doctree.Range{
		Anchor: doctree.Point{Path: doctree.Path{0, 0}, Offset: 2},
		Focus:  doctree.Point{Path: doctree.Path{0, 0}, Offset: 7},
	})
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	n, err := MarkSelectionEditable(e, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 run marked, got %d", n)
	}

	runs := e.Children()[0].Children
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i, want := range []struct {
		text     string
		editable *bool
	}{{"He", nil}, {"llo w", doctree.Bool(true)}, {"orld", nil}} {
		if runs[i].Text != want.text {
			t.Errorf("run %d text = %q, want %q", i, runs[i].Text, want.text)
		}
		if (runs[i].Editable == nil) != (want.editable == nil) {
			t.Errorf("run %d editable = %v, want %v", i, runs[i].Editable, want.editable)
		}
	}
}

func TestMarkSelectionEditable_CollapsedIsNoop(t *testing.T) {
	e := newEditor(t, doctree.Tree{doctree.Paragraph(doctree.Text("Hello"))})
	cursor(t, e, 3, 0, 0)

	n, err := MarkSelectionEditable(e, true)
	if err != nil || n != 0 {
		t.Fatalf("expected no-op, got n=%d err=%v", n, err)
	}
	if len(e.Children()[0].Children) != 1 {
		t.Error("run was split")
	}
}
