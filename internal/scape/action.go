package scape

import "fmt"

type ScreenActionKind int

const (
	ActionNoop ScreenActionKind = iota
	ActionPutChar
	ActionMove
	ActionDrawDot
	ActionClear
)

func (k ScreenActionKind) String() string {
	switch k {
	case ActionNoop:
		return "NOOP"
	case ActionPutChar:
		return "PUT_CHAR"
	case ActionMove:
		return "MOVE"
	case ActionDrawDot:
		return "DRAW_DOT"
	case ActionClear:
		return "CLEAR"
	default:
		return fmt.Sprintf("ScreenActionKind(%d)", int(k))
	}
}

// ScreenAction is the action vocabulary of screen environments. X/Y address
// PUT_CHAR and DRAW_DOT, DX/DY drive MOVE.
type ScreenAction struct {
	Kind ScreenActionKind `json:"kind"`
	X    int              `json:"x,omitempty"`
	Y    int              `json:"y,omitempty"`
	DX   int              `json:"dx,omitempty"`
	DY   int              `json:"dy,omitempty"`
	Char rune             `json:"char,omitempty"`
}

// NoopAction leaves the world untouched.
var NoopAction = ScreenAction{Kind: ActionNoop}

func MoveAction(dx, dy int) ScreenAction {
	return ScreenAction{Kind: ActionMove, DX: dx, DY: dy}
}

func DrawDotAction(x, y int) ScreenAction {
	return ScreenAction{Kind: ActionDrawDot, X: x, Y: y}
}

func PutCharAction(x, y int, c rune) ScreenAction {
	return ScreenAction{Kind: ActionPutChar, X: x, Y: y, Char: c}
}

func (a ScreenAction) String() string {
	switch a.Kind {
	case ActionMove:
		return fmt.Sprintf("MOVE(%+d,%+d)", a.DX, a.DY)
	case ActionDrawDot:
		return fmt.Sprintf("DRAW_DOT(%d,%d)", a.X, a.Y)
	case ActionPutChar:
		return fmt.Sprintf("PUT_CHAR(%d,%d,%q)", a.X, a.Y, a.Char)
	default:
		return a.Kind.String()
	}
}
