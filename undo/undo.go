package undo

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
)

var ErrReentrant = errors.New("undo or redo called while a replay is in progress")

// Action is a logged inverse operation. All actions with the same group are undone and redone together.
type Action[T comparable] struct {
	Name    string
	Targets []T
	Perform func()
	Comment map[string]any
	Group   int
}

// Manager holds the undo and redo stack. The type parameter is the type of the objects actions refer to.
type Manager[T comparable] struct {
	undoStack []Action[T]
	redoStack []Action[T]

	idCounter     int
	runLoopGroup  int
	groupingStack []int

	undoing     bool
	redoing     bool
	replayGroup int
}

func NewManager[T comparable]() *Manager[T] {
	m := &Manager[T]{}
	m.runLoopGroup = m.nextID()
	return m
}

func (m *Manager[T]) nextID() int {
	m.idCounter++
	return m.idCounter
}

// AdvanceRunLoop is called once per outer event. Actions registered outside of an explicit grouping in different
// events end up in different groups.
func (m *Manager[T]) AdvanceRunLoop() {
	m.runLoopGroup = m.nextID()
}

// BeginUndoGrouping starts a group. Nested groupings share the id of the outermost one so everything registered until
// the matching EndUndoGrouping is one undo step.
func (m *Manager[T]) BeginUndoGrouping() {
	if len(m.groupingStack) > 0 {
		m.groupingStack = append(m.groupingStack, m.groupingStack[len(m.groupingStack)-1])
		return
	}
	m.groupingStack = append(m.groupingStack, m.nextID())
}

func (m *Manager[T]) EndUndoGrouping() {
	if len(m.groupingStack) == 0 {
		sigolo.Errorf("Undo: EndUndoGrouping without matching BeginUndoGrouping")
		return
	}
	m.groupingStack = m.groupingStack[:len(m.groupingStack)-1]
}

func (m *Manager[T]) currentGroup() int {
	if m.undoing || m.redoing {
		return m.replayGroup
	}
	if len(m.groupingStack) > 0 {
		return m.groupingStack[len(m.groupingStack)-1]
	}
	return m.runLoopGroup
}

func (m *Manager[T]) IsUndoing() bool {
	return m.undoing
}

func (m *Manager[T]) IsRedoing() bool {
	return m.redoing
}

// RegisterUndo logs an action. While undoing it's pushed to the redo stack, while redoing to the undo stack. Outside
// of a replay it's pushed to the undo stack and the redo stack is cleared.
func (m *Manager[T]) RegisterUndo(name string, targets []T, perform func()) {
	m.register(Action[T]{
		Name:    name,
		Targets: targets,
		Perform: perform,
	})
}

// RegisterComment logs a no-op action carrying data for the caller. The comment is re-registered on every replay so
// it travels between both stacks together with its group.
func (m *Manager[T]) RegisterComment(comment map[string]any) {
	m.register(Action[T]{
		Name:    "comment",
		Comment: comment,
		Perform: func() {
			m.RegisterComment(comment)
		},
	})
}

func (m *Manager[T]) register(action Action[T]) {
	action.Group = m.currentGroup()

	if m.undoing {
		m.redoStack = append(m.redoStack, action)
	} else if m.redoing {
		m.undoStack = append(m.undoStack, action)
	} else {
		m.undoStack = append(m.undoStack, action)
		m.redoStack = nil
	}
}

func (m *Manager[T]) CanUndo() bool {
	return len(m.undoStack) > 0
}

func (m *Manager[T]) CanRedo() bool {
	return len(m.redoStack) > 0
}

func (m *Manager[T]) UndoCount() int {
	return len(m.undoStack)
}

func (m *Manager[T]) RedoCount() int {
	return len(m.redoStack)
}

// Undo performs all actions of the most recent group. The most recently registered comment of that group is returned.
func (m *Manager[T]) Undo() (map[string]any, error) {
	if m.undoing || m.redoing {
		return nil, ErrReentrant
	}

	m.undoing = true
	defer func() {
		m.undoing = false
	}()

	return m.replay(&m.undoStack), nil
}

// Redo performs all actions of the most recently undone group.
func (m *Manager[T]) Redo() (map[string]any, error) {
	if m.undoing || m.redoing {
		return nil, ErrReentrant
	}

	m.redoing = true
	defer func() {
		m.redoing = false
	}()

	return m.replay(&m.redoStack), nil
}

func (m *Manager[T]) replay(stack *[]Action[T]) map[string]any {
	if len(*stack) == 0 {
		return nil
	}

	m.replayGroup = m.nextID()
	group := (*stack)[len(*stack)-1].Group

	var comment map[string]any
	count := 0
	for len(*stack) > 0 && (*stack)[len(*stack)-1].Group == group {
		action := (*stack)[len(*stack)-1]
		*stack = (*stack)[:len(*stack)-1]

		if action.Comment != nil && comment == nil {
			comment = action.Comment
		}
		action.Perform()
		count++
	}

	sigolo.Debugf("Undo: replayed %d actions of group %d", count, group)
	return comment
}

// RemoveMostRecentRedo drops the top group of the redo stack so it can't be redone anymore.
func (m *Manager[T]) RemoveMostRecentRedo() {
	if len(m.redoStack) == 0 {
		return
	}
	group := m.redoStack[len(m.redoStack)-1].Group
	for len(m.redoStack) > 0 && m.redoStack[len(m.redoStack)-1].Group == group {
		m.redoStack = m.redoStack[:len(m.redoStack)-1]
	}
}

// ObjectRefs returns every object referenced by an action on either stack.
func (m *Manager[T]) ObjectRefs() map[T]struct{} {
	refs := map[T]struct{}{}
	for _, stack := range [][]Action[T]{m.undoStack, m.redoStack} {
		for _, action := range stack {
			for _, target := range action.Targets {
				refs[target] = struct{}{}
			}
		}
	}
	return refs
}

func (m *Manager[T]) RemoveAll() {
	m.undoStack = nil
	m.redoStack = nil
}
