package game

import "fmt"

// ProgrammingRegister is the five-slot program of a robot for one round.
// A locked slot holds a card the player cannot replace.
type ProgrammingRegister struct {
	slots  [RegisterCount]*Card
	locked [RegisterCount]bool
}

func checkIndex(i int) error {
	if i < 0 || i >= RegisterCount {
		return fmt.Errorf("%w: register index %d out of range 0-%d", ErrInvalidOperation, i, RegisterCount-1)
	}
	return nil
}

// Set places c in slot i. Locked slots reject the change.
func (r *ProgrammingRegister) Set(i int, c *Card) error {
	if err := checkIndex(i); err != nil {
		return err
	}
	if r.locked[i] {
		return reject("register %d is locked", i+1)
	}
	r.slots[i] = c
	return nil
}

// Lock forces c into slot i and locks it. Damage effects lock the card they
// play for the rest of the register; a lock still held when programming
// starts survives it.
func (r *ProgrammingRegister) Lock(i int, c *Card) error {
	if err := checkIndex(i); err != nil {
		return err
	}
	r.slots[i] = c
	r.locked[i] = true
	return nil
}

func (r *ProgrammingRegister) Get(i int) (*Card, error) {
	if err := checkIndex(i); err != nil {
		return nil, err
	}
	return r.slots[i], nil
}

func (r *ProgrammingRegister) IsLocked(i int) bool {
	return i >= 0 && i < RegisterCount && r.locked[i]
}

// Clear empties slot i, returning nothing.
func (r *ProgrammingRegister) Clear(i int) error {
	_, err := r.Remove(i)
	return err
}

// Remove empties slot i and returns what it held.
func (r *ProgrammingRegister) Remove(i int) (*Card, error) {
	if err := checkIndex(i); err != nil {
		return nil, err
	}
	c := r.slots[i]
	r.slots[i] = nil
	r.locked[i] = false
	return c, nil
}

// ClearAll empties every slot and drops all locks.
func (r *ProgrammingRegister) ClearAll() {
	r.Drain()
}

// Drain empties every slot and returns the non-empty ones in slot order.
func (r *ProgrammingRegister) Drain() []*Card {
	var out []*Card
	for i := range r.slots {
		if r.slots[i] != nil {
			out = append(out, r.slots[i])
		}
		r.slots[i] = nil
		r.locked[i] = false
	}
	return out
}

// DrainFrom empties slots from..4 and returns their cards.
func (r *ProgrammingRegister) DrainFrom(from int) []*Card {
	var out []*Card
	for i := max(from, 0); i < RegisterCount; i++ {
		if r.slots[i] != nil {
			out = append(out, r.slots[i])
		}
		r.slots[i] = nil
		r.locked[i] = false
	}
	return out
}

// IsFilled reports whether all five slots hold a card.
func (r *ProgrammingRegister) IsFilled() bool {
	for _, c := range r.slots {
		if c == nil {
			return false
		}
	}
	return true
}

// Cards returns a copy of the slots; empty slots are nil.
func (r *ProgrammingRegister) Cards() [RegisterCount]*Card {
	return r.slots
}
