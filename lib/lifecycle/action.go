package lifecycle

import (
	"fmt"
	"strings"
)

// Action is the closed set of things a caller can do to a single note.
type Action int

const (
	ActionView Action = iota + 1
	ActionEdit
	ActionArchive
	ActionUnarchive
	ActionDelete
	ActionRestore
	ActionPurgeForever
)

var actionNames = map[Action]string{
	ActionView:         "view",
	ActionEdit:         "edit",
	ActionArchive:      "archive",
	ActionUnarchive:    "unarchive",
	ActionDelete:       "delete",
	ActionRestore:      "restore",
	ActionPurgeForever: "purge",
}

var Actions = []Action{ActionView, ActionEdit, ActionArchive, ActionUnarchive, ActionDelete, ActionRestore, ActionPurgeForever}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "permanentdelete" {
		return ActionPurgeForever, nil
	}
	for a, name := range actionNames {
		if name == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	parsed, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Mutates reports whether the action writes to the store.
func (a Action) Mutates() bool {
	return a != ActionView
}

// AvailableIn lists what the UI offers for a note in view v. The bin only offers restore and purge.
func AvailableIn(v View) []Action {
	switch v {
	case ViewBin:
		return []Action{ActionRestore, ActionPurgeForever}
	case ViewArchived:
		return []Action{ActionView, ActionEdit, ActionUnarchive, ActionDelete}
	default:
		return []Action{ActionView, ActionEdit, ActionArchive, ActionDelete}
	}
}
