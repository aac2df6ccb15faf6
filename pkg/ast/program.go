package ast

// Slot is the resolver's answer for one identifier-like node: how many scopes
// up the binding lives and at which index inside that scope. Outer marks a
// binding found outside the enclosing method, which a field of `this` with
// the same name shadows.
type Slot struct {
	Distance int
	Index    int
	Outer    bool
}

// Program owns the statements of one source unit together with an arena that
// maps every NodeID to its node and to the resolver's slot, if any.
type Program struct {
	nodeImpl

	Statements []Statement `json:"statements"`

	nodes    []Node
	slots    []Slot
	resolved []bool
}

// NewProgram numbers every node reachable from stmts. IDs start at 1.
func NewProgram(stmts []Statement) *Program {
	p := &Program{nodeImpl: newNodeImpl(NodeProgram), Statements: stmts}
	p.nodes = []Node{nil}
	for _, stmt := range stmts {
		p.Adopt(stmt)
	}
	return p
}

// Adopt assigns IDs to node and any of its unnumbered descendants. Nodes that
// already carry an ID are left alone, so adopting a partially rewritten tree
// only numbers the new parts.
func (p *Program) Adopt(node Node) {
	if node == nil || IsNil(node) {
		return
	}
	Inspect(node, func(n Node) bool {
		if n.ID() != NoNode {
			return true
		}
		n.setID(NodeID(len(p.nodes)))
		p.nodes = append(p.nodes, n)
		return true
	})
}

// Len reports how many IDs have been handed out, including the unused zero.
func (p *Program) Len() int { return len(p.nodes) }

func (p *Program) Node(id NodeID) Node {
	if id <= NoNode || int(id) >= len(p.nodes) {
		return nil
	}
	return p.nodes[id]
}

func (p *Program) SetSlot(id NodeID, slot Slot) {
	if id <= NoNode {
		return
	}
	for int(id) >= len(p.slots) {
		p.slots = append(p.slots, Slot{})
		p.resolved = append(p.resolved, false)
	}
	p.slots[id] = slot
	p.resolved[id] = true
}

// Slot returns the resolver entry for id. Globals are never resolved and
// report ok=false, which sends the evaluator to name-based lookup.
func (p *Program) Slot(id NodeID) (Slot, bool) {
	if p == nil || id <= NoNode || int(id) >= len(p.slots) || !p.resolved[id] {
		return Slot{}, false
	}
	return p.slots[id], true
}

// ClearSlots drops every resolver entry.
func (p *Program) ClearSlots() {
	p.slots = nil
	p.resolved = nil
}

// ResolvedCount is the number of nodes that carry a slot.
func (p *Program) ResolvedCount() int {
	count := 0
	for _, ok := range p.resolved {
		if ok {
			count++
		}
	}
	return count
}
