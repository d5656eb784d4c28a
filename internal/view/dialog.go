package view

// ConfirmDialog is a modal asking the user to confirm an action. A closed dialog
// renders nothing.
type ConfirmDialog struct {
	Open          bool
	Title         string
	Message       string
	ConfirmLabel  string
	CancelLabel   string
	Danger        bool
	ConfirmAction string
	CancelAction  string
}

func (d ConfirmDialog) ConfirmText() string {
	if d.ConfirmLabel != "" {
		return d.ConfirmLabel
	}
	if d.Danger {
		return "Delete"
	}
	return "Confirm"
}

func (d ConfirmDialog) CancelText() string {
	if d.CancelLabel != "" {
		return d.CancelLabel
	}
	return "Cancel"
}
