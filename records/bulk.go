package records

import (
	"context"
	"fmt"
)

// Command is one of the list-wide bulk actions.
type Command int

const (
	CheckAll Command = iota + 1
	UncheckAll
	Inverse
	Delete
	ClearAll
)

var commandNames = map[Command]string{
	CheckAll:   "check-all",
	UncheckAll: "uncheck-all",
	Inverse:    "inverse",
	Delete:     "delete",
	ClearAll:   "clear-all",
}

// Commands returns every bulk command in display order.
func Commands() []Command {
	return []Command{CheckAll, UncheckAll, Inverse, Delete, ClearAll}
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

func (c Command) MarshalText() ([]byte, error) {
	if _, ok := commandNames[c]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCommand, int(c))
	}
	return []byte(c.String()), nil
}

// ParseCommand maps a command name such as "check-all" to its Command.
func ParseCommand(name string) (Command, error) {
	for c, n := range commandNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// Dispatch runs a bulk command against the list. Delete with nothing
// selected does nothing.
func (l *List) Dispatch(ctx context.Context, cmd Command) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var err error
	switch cmd {
	case CheckAll:
		l.selection.SelectAll(l.records.Len())
	case UncheckAll:
		l.selection.Clear()
	case Inverse:
		l.selection.Invert(l.records.Len())
	case Delete:
		members := l.selection.Members()
		if len(members) == 0 {
			l.observer.Dispatched(l.name, cmd)
			return nil
		}
		err = l.records.RemoveAt(ctx, members)
		l.selection.Clear()
		l.report(cmd.String(), err)
	case ClearAll:
		err = l.records.Clear(ctx)
		l.selection.Clear()
		l.report(cmd.String(), err)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownCommand, int(cmd))
	}
	l.observer.Dispatched(l.name, cmd)
	return err
}
