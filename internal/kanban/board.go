package kanban

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IdanRossman/jiranimo/internal/model"
)

var (
	// ErrUnknownColumn is returned when a column ID is not on the board.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrIndexOutOfRange is returned for a position outside a column.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Column is a board column with its current membership.
type Column struct {
	ColumnDef
	Issues []*model.Issue `json:"issues"`
}

// Count returns the number of issues in the column.
func (c *Column) Count() int { return len(c.Issues) }

// Board is an ordered set of columns. A Board is not safe for concurrent
// use; the transition controller serializes access to it.
type Board struct {
	columns []*Column
	index   map[string]int
}

// NewBoard builds an empty board from validated column definitions.
func NewBoard(defs []ColumnDef) (*Board, error) {
	if err := ValidateColumns(defs); err != nil {
		return nil, err
	}
	b := &Board{
		columns: make([]*Column, len(defs)),
		index:   make(map[string]int, len(defs)),
	}
	for i, d := range defs {
		d.Aliases = append([]string(nil), d.Aliases...)
		b.columns[i] = &Column{ColumnDef: d, Issues: []*model.Issue{}}
		b.index[d.ID] = i
	}
	return b, nil
}

// Defs returns the column definitions in board order.
func (b *Board) Defs() []ColumnDef {
	defs := make([]ColumnDef, len(b.columns))
	for i, c := range b.columns {
		defs[i] = c.ColumnDef
	}
	return defs
}

// Columns returns the live columns in board order.
func (b *Board) Columns() []*Column { return b.columns }

// Column returns the column with the given ID.
func (b *Board) Column(id string) (*Column, error) {
	i, ok := b.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, id)
	}
	return b.columns[i], nil
}

// Partition recomputes column membership from issues. Done issues are left
// off the board; every other issue lands in exactly one column. Order within
// a column follows the input order.
func (b *Board) Partition(issues []*model.Issue) {
	defs := b.Defs()
	for _, c := range b.columns {
		c.Issues = []*model.Issue{}
	}
	for _, issue := range issues {
		i := MatchColumn(defs, issue)
		if i < 0 {
			continue
		}
		b.columns[i].Issues = append(b.columns[i].Issues, issue)
	}
}

// Count returns the number of issues on the board.
func (b *Board) Count() int {
	n := 0
	for _, c := range b.columns {
		n += len(c.Issues)
	}
	return n
}

// Locate finds the column and index of the issue with key.
func (b *Board) Locate(key string) (columnID string, index int, ok bool) {
	for _, c := range b.columns {
		for i, issue := range c.Issues {
			if issue.Key == key {
				return c.ID, i, true
			}
		}
	}
	return "", -1, false
}

// Reorder moves the issue at from to position to within a single column.
func (b *Board) Reorder(columnID string, from, to int) error {
	col, err := b.Column(columnID)
	if err != nil {
		return err
	}
	if err := checkIndex(col, from, len(col.Issues)-1); err != nil {
		return err
	}
	if err := checkIndex(col, to, len(col.Issues)-1); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	issue := col.Issues[from]
	issues := append(col.Issues[:from:from], col.Issues[from+1:]...)
	col.Issues = insertAt(issues, to, issue)
	return nil
}

// Transfer moves the issue at fromIndex in fromID to toIndex in toID.
// toIndex may equal the destination length to append. Nothing changes on error.
func (b *Board) Transfer(fromID string, fromIndex int, toID string, toIndex int) (*model.Issue, error) {
	src, err := b.Column(fromID)
	if err != nil {
		return nil, err
	}
	dst, err := b.Column(toID)
	if err != nil {
		return nil, err
	}
	if fromID == toID {
		if err := b.Reorder(fromID, fromIndex, toIndex); err != nil {
			return nil, err
		}
		return src.Issues[toIndex], nil
	}
	if err := checkIndex(src, fromIndex, len(src.Issues)-1); err != nil {
		return nil, err
	}
	if err := checkIndex(dst, toIndex, len(dst.Issues)); err != nil {
		return nil, err
	}
	issue, _ := b.Remove(fromID, fromIndex)
	dst.Issues = insertAt(dst.Issues, toIndex, issue)
	return issue, nil
}

// Remove deletes and returns the issue at index in the column.
func (b *Board) Remove(columnID string, index int) (*model.Issue, error) {
	col, err := b.Column(columnID)
	if err != nil {
		return nil, err
	}
	if err := checkIndex(col, index, len(col.Issues)-1); err != nil {
		return nil, err
	}
	issue := col.Issues[index]
	col.Issues = append(col.Issues[:index:index], col.Issues[index+1:]...)
	return issue, nil
}

// Insert places issue at index in the column, clamping index to the column
// bounds.
func (b *Board) Insert(columnID string, index int, issue *model.Issue) error {
	col, err := b.Column(columnID)
	if err != nil {
		return err
	}
	index = max(0, min(index, len(col.Issues)))
	col.Issues = insertAt(col.Issues, index, issue)
	return nil
}

// Clone returns a copy of the board whose column slices are independent of
// b. Issues are shared.
func (b *Board) Clone() *Board {
	c := &Board{
		columns: make([]*Column, len(b.columns)),
		index:   make(map[string]int, len(b.index)),
	}
	for i, col := range b.columns {
		c.columns[i] = &Column{
			ColumnDef: col.ColumnDef,
			Issues:    append([]*model.Issue{}, col.Issues...),
		}
		c.index[col.ID] = i
	}
	return c
}

func checkIndex(col *Column, i, maxIndex int) error {
	if i < 0 || i > maxIndex {
		return fmt.Errorf("%w: %d in column %q (size %d)", ErrIndexOutOfRange, i, col.ID, len(col.Issues))
	}
	return nil
}

func insertAt(issues []*model.Issue, i int, issue *model.Issue) []*model.Issue {
	out := make([]*model.Issue, 0, len(issues)+1)
	out = append(out, issues[:i]...)
	out = append(out, issue)
	return append(out, issues[i:]...)
}

// MarshalJSON encodes the board as its ordered columns.
func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.columns)
}
