package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hatlabs/cockpit-container-apps/internal/configform"
	"github.com/hatlabs/cockpit-container-apps/internal/schema"
)

// formEditor binds a configform.Form to terminal widgets. Text-like fields
// get a textinput; booleans toggle and enums cycle in place.
type formEditor struct {
	form   *configform.Form
	fields []schema.Field
	inputs map[string]textinput.Model
	focus  int
}

func newFormEditor(form *configform.Form) *formEditor {
	e := &formEditor{
		form:   form,
		fields: form.Schema().Fields(),
		inputs: make(map[string]textinput.Model),
	}
	for _, f := range e.fields {
		if !usesTextInput(f.Type) {
			continue
		}
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 512
		in.Cursor.SetMode(cursor.CursorStatic)
		in.Placeholder = f.Default
		if f.Type == schema.TypePassword {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		e.inputs[f.ID] = in
	}
	e.syncInputs()
	e.focusField(0)
	return e
}

func usesTextInput(t schema.FieldType) bool {
	return t != schema.TypeBoolean && t != schema.TypeEnum
}

// syncInputs copies the form values into the widgets, after a save, a
// reload or a cancel replaced them.
func (e *formEditor) syncInputs() {
	for id, in := range e.inputs {
		in.SetValue(e.form.Value(id))
		e.inputs[id] = in
	}
}

func (e *formEditor) current() (schema.Field, bool) {
	if e.focus < 0 || e.focus >= len(e.fields) {
		return schema.Field{}, false
	}
	return e.fields[e.focus], true
}

func (e *formEditor) focusField(idx int) tea.Cmd {
	if len(e.fields) == 0 {
		return nil
	}
	idx = (idx + len(e.fields)) % len(e.fields)
	e.focus = idx
	var cmd tea.Cmd
	for id, in := range e.inputs {
		if id == e.fields[idx].ID {
			cmd = in.Focus()
		} else {
			in.Blur()
		}
		e.inputs[id] = in
	}
	return cmd
}

// update handles a key while the form has focus. Save, cancel and close are
// left to the caller.
func (e *formEditor) update(msg tea.KeyMsg, keys keyMap) tea.Cmd {
	field, ok := e.current()
	if !ok {
		return nil
	}

	switch {
	case key.Matches(msg, keys.NextField):
		return e.focusField(e.focus + 1)
	case key.Matches(msg, keys.PrevField):
		return e.focusField(e.focus - 1)
	}

	switch field.Type {
	case schema.TypeBoolean:
		if key.Matches(msg, keys.Toggle) || msg.String() == "enter" {
			e.form.SetFieldValue(field.ID, configform.Toggle(e.form.Value(field.ID)))
		}
		return nil
	case schema.TypeEnum:
		switch {
		case key.Matches(msg, keys.OptionNext), key.Matches(msg, keys.Toggle):
			e.form.SetFieldValue(field.ID, configform.CycleOption(field, e.form.Value(field.ID), 1))
		case key.Matches(msg, keys.OptionPrev):
			e.form.SetFieldValue(field.ID, configform.CycleOption(field, e.form.Value(field.ID), -1))
		}
		return nil
	}

	in := e.inputs[field.ID]
	var cmd tea.Cmd
	in, cmd = in.Update(msg)
	filtered := configform.Filter(field, in.Value())
	if filtered != in.Value() {
		in.SetValue(filtered)
	}
	e.inputs[field.ID] = in
	if filtered != e.form.Value(field.ID) {
		e.form.SetFieldValue(field.ID, filtered)
	}
	return cmd
}

// view renders the fields with their hints and inline errors.
func (e *formEditor) view(styles Styles, width int) string {
	var b strings.Builder
	errs := e.form.Errors()
	labelWidth := 0
	for _, f := range e.fields {
		labelWidth = max(labelWidth, lipgloss.Width(fieldLabel(f)))
	}
	labelStyle := styles.MutedText.Width(labelWidth + 2)
	focusLabel := styles.AccentText.Bold(true).Width(labelWidth + 2)

	for i, f := range e.fields {
		focused := i == e.focus
		label := labelStyle.Render(fieldLabel(f))
		if focused {
			label = focusLabel.Render(fieldLabel(f))
		}

		var control string
		switch f.Type {
		case schema.TypeBoolean, schema.TypeEnum:
			control = configform.Display(f, e.form.Value(f.ID))
			if f.Type == schema.TypeEnum {
				control = "‹ " + control + " ›"
			}
			if focused {
				control = styles.Selected.Render(control)
			} else {
				control = styles.Text.Render(control)
			}
		default:
			in := e.inputs[f.ID]
			in.Width = max(width-labelWidth-6, 10)
			if !focused && f.Type == schema.TypePassword {
				control = styles.Text.Render(configform.Display(f, e.form.Value(f.ID)))
			} else {
				control = in.View()
			}
		}
		b.WriteString(label + control + "\n")

		indent := strings.Repeat(" ", labelWidth+2)
		if msg, ok := errs[f.ID]; ok {
			b.WriteString(indent + styles.DangerText.Render(msg) + "\n")
		} else if hint := configform.Hint(f, e.form.Value(f.ID)); hint != "" && focused {
			b.WriteString(indent + styles.WarningText.Render(hint) + "\n")
		}
		if focused && f.Description != "" {
			b.WriteString(indent + styles.FaintText.Render(truncate(f.Description, max(width-labelWidth-4, 10))) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(e.statusLine(styles))
	return b.String()
}

func (e *formEditor) statusLine(styles Styles) string {
	var parts []string
	switch e.form.Status() {
	case configform.StatusSaving:
		parts = append(parts, styles.InfoText.Render("Saving..."))
	case configform.StatusDirty:
		parts = append(parts, styles.WarningText.Render("Unsaved changes"))
	default:
		parts = append(parts, styles.SuccessText.Render("Saved"))
	}
	if n := len(e.form.Errors()); n > 0 {
		parts = append(parts, styles.DangerText.Render(fmt.Sprintf("%d field(s) need attention", n)))
	}
	line := strings.Join(parts, "  ")
	if msg := e.form.SaveError(); msg != "" {
		line += "\n" + styles.DangerText.Render("Save failed: "+msg) + " " + styles.FaintText.Render("(ctrl+x to dismiss)")
	}
	if w := e.form.Warning(); w != "" {
		line += "\n" + styles.WarningText.Render("Warning: "+w)
	}
	return line
}

func fieldLabel(f schema.Field) string {
	label := f.Label
	if label == "" {
		label = f.ID
	}
	if f.Required {
		label += " *"
	}
	return label
}
