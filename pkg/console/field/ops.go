package field

// ExtractValue reads the current value of a field box. The first present
// source wins: the checked radio, then the selected option, then the text
// input, then the hidden value input. A nil field or a box with none of
// these yields Null.
func ExtractValue(f *Field) Value {
	if f == nil {
		return Null
	}
	if v := f.CheckedRadio(); v.Valid() {
		return v
	}
	if v := f.SelectedOption(); v.Valid() {
		return v
	}
	if f.hasText {
		return f.text
	}
	if f.hasHidden {
		return f.hidden
	}
	return Null
}

// SetValue writes v to every input of the box and then fires a change so
// dependent rules re-evaluate.
//
// Null unchecks the radio group, clears the select and text inputs, and runs
// the foreign-key clear action when the box is a lookup. A present value
// checks the matching radio (if any) and sets the select and text inputs.
func SetValue(f *Field, v Value) {
	if f == nil {
		return
	}
	if !v.Valid() {
		f.checked = -1
	} else {
		f.checkRadio(v.String())
	}

	if f.hasSel {
		f.selected = f.matchOption(v)
	}
	if f.hasText {
		if v.Valid() {
			f.text = v
		} else {
			f.text = Some("")
		}
	}

	if !v.Valid() && f.fk != nil {
		f.clearForeignKey()
	}
	f.Change()
}

func (f *Field) clearForeignKey() {
	f.fk.Display = f.fk.NoneSelected
	f.hidden = Null
	if f.fk.OnClear != nil {
		f.fk.OnClear(f)
	}
}
