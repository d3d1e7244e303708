package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-spectral/internal/assert"
)

type node struct {
	prev, next *node
	module     *Module
}

// Chain is an ordered sequence of modules.
//
// Structural changes are serialized by a mutex and publish an immutable
// snapshot of the module order, which the processor reads without locking.
// A module belongs to at most one chain but may occupy several of its nodes.
type Chain struct {
	mu   sync.Mutex
	head node

	// format is non-nil once the owning processor is configured. Inserted
	// modules are set up for it.
	format *Format

	snapshot atomic.Pointer[[]*Module]
}

// NewChain returns an empty chain.
func NewChain() *Chain {
	c := &Chain{}
	c.init()

	return c
}

func (c *Chain) init() {
	if c.head.next == nil {
		c.head.next = &c.head
		c.head.prev = &c.head
	}
}

// InsertBefore inserts m in front of the first node holding following.
func (c *Chain) InsertBefore(following, m *Module) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.init()

	if !c.member(following) {
		return fmt.Errorf("engine: insert before: %w", ErrNotMember)
	}

	return c.insertAfter(following.nodes[0].prev, m)
}

// InsertAfter inserts m behind the first node holding preceding.
func (c *Chain) InsertAfter(preceding, m *Module) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.init()

	if !c.member(preceding) {
		return fmt.Errorf("engine: insert after: %w", ErrNotMember)
	}

	return c.insertAfter(preceding.nodes[0], m)
}

// Append inserts m at the end.
func (c *Chain) Append(m *Module) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.init()

	return c.insertAfter(c.head.prev, m)
}

// Prepend inserts m at the front.
func (c *Chain) Prepend(m *Module) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.init()

	return c.insertAfter(&c.head, m)
}

// insertAfter links a new node for m behind at. Inserting a module that is
// already a member adds another node for it.
func (c *Chain) insertAfter(at *node, m *Module) error {
	if m == nil {
		return fmt.Errorf("engine: insert: %w: nil module", ErrInvalidParameter)
	}

	if m.Destroyed() {
		return fmt.Errorf("engine: insert %q: %w", m.Title(), ErrDestroyed)
	}

	if owner := m.chain.Load(); owner != nil && owner != c {
		return fmt.Errorf("engine: insert %q: %w", m.Title(), ErrOtherChain)
	}

	claimed := m.chain.CompareAndSwap(nil, c)
	if !claimed && m.chain.Load() != c {
		return fmt.Errorf("engine: insert %q: %w", m.Title(), ErrOtherChain)
	}

	if c.format != nil {
		err := m.setup(*c.format)
		if err != nil {
			if claimed {
				m.chain.CompareAndSwap(c, nil)
			}

			return err
		}
	}

	n := &node{prev: at, next: at.next, module: m}
	at.next.prev = n
	at.next = n

	m.nodes = append(m.nodes, n)
	m.Retain()
	c.publish()

	return nil
}

// Remove unlinks the most recently inserted node of m and drops the chain's
// ownership, which destroys m when the chain held the last one.
func (c *Chain) Remove(m *Module) {
	c.mu.Lock()

	c.init()

	if !c.member(m) {
		c.mu.Unlock()
		assert.That(false, "remove of non-member module")

		return
	}

	last := len(m.nodes) - 1
	c.unlink(m.nodes[last])
	m.nodes[last] = nil
	m.nodes = m.nodes[:last]

	if len(m.nodes) == 0 {
		m.chain.Store(nil)
	}

	c.publish()
	c.mu.Unlock()

	m.Release()
}

// Reverse inverts the module order.
func (c *Chain) Reverse() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.init()

	n := &c.head
	for {
		n.prev, n.next = n.next, n.prev

		n = n.prev
		if n == &c.head {
			break
		}
	}

	c.publish()
}

// ShiftForward rotates the chain so that the module at position n becomes
// the first. A,B,C shifted forward by one gives B,C,A. n wraps modulo the
// chain size.
func (c *Chain) ShiftForward(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.init()
	c.rotate(n)
}

// ShiftBackwards rotates the chain the other way: A,B,C shifted backwards by
// one gives C,A,B.
func (c *Chain) ShiftBackwards(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.init()
	c.rotate(-n)
}

func (c *Chain) rotate(n int) {
	size := c.size()
	if size < 2 {
		return
	}

	k := ((n % size) + size) % size
	if k == 0 {
		return
	}

	first := c.head.next
	last := c.head.prev

	newFirst := first
	for range k {
		newFirst = newFirst.next
	}

	newLast := newFirst.prev

	// Close the ring around the sentinel, then reopen it at newFirst.
	last.next = first
	first.prev = last
	newLast.next = &c.head
	newFirst.prev = &c.head
	c.head.next = newFirst
	c.head.prev = newLast

	c.publish()
}

// Swap exchanges the positions of a and b (their first nodes).
func (c *Chain) Swap(a, b *Module) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.init()

	if !c.member(a) || !c.member(b) {
		assert.That(false, "swap of non-member module")
		return
	}

	if a == b {
		return
	}

	na, nb := a.nodes[0], b.nodes[0]
	na.module, nb.module = b, a
	a.nodes[0], b.nodes[0] = nb, na

	c.publish()
}

// Clear removes every module and drops all chain ownerships.
func (c *Chain) Clear() {
	c.mu.Lock()

	c.init()

	var released []*Module

	for n := c.head.next; n != &c.head; n = n.next {
		m := n.module
		released = append(released, m)

		m.nodes = nil
		m.chain.Store(nil)
	}

	c.head.next = &c.head
	c.head.prev = &c.head
	c.publish()
	c.mu.Unlock()

	for _, m := range released {
		m.Release()
	}
}

// Size counts the nodes of the chain.
func (c *Chain) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.init()

	return c.size()
}

func (c *Chain) size() int {
	n := 0
	for it := c.head.next; it != &c.head; it = it.next {
		n++
	}

	return n
}

// Empty reports whether the chain holds no module.
func (c *Chain) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.head.next == nil || c.head.next == &c.head
}

// At returns the module at position i. It panics when i is out of range.
func (c *Chain) At(i int) *Module {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.init()

	if i >= 0 {
		k := 0
		for n := c.head.next; n != &c.head; n = n.next {
			if k == i {
				return n.module
			}

			k++
		}
	}

	panic(fmt.Sprintf("engine: chain index %d out of range [0:%d]", i, c.size()))
}

// Contains reports whether m is a member of the chain.
func (c *Chain) Contains(m *Module) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.member(m)
}

// Modules returns the current order. The slice must not be modified.
func (c *Chain) Modules() []*Module {
	if s := c.snapshot.Load(); s != nil {
		return *s
	}

	return nil
}

func (c *Chain) member(m *Module) bool {
	return m != nil && m.chain.Load() == c && len(m.nodes) > 0
}

func (c *Chain) unlink(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next, n.module = nil, nil, nil
}

func (c *Chain) publish() {
	order := make([]*Module, 0, len(c.Modules())+1)
	for n := c.head.next; n != &c.head; n = n.next {
		order = append(order, n.module)
	}

	c.snapshot.Store(&order)
}

// configure sets up every member for f and remembers f for later inserts.
func (c *Chain) configure(f Format) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.init()

	for n := c.head.next; n != &c.head; n = n.next {
		err := n.module.setup(f)
		if err != nil {
			return err
		}
	}

	c.format = &f

	return nil
}

// replace swaps the whole content for modules in one published snapshot.
// The chain takes over one ownership of every entry; previous members are
// released. Entries must already be set up for f when f is not nil.
func (c *Chain) replace(modules []*Module, f *Format) {
	c.mu.Lock()

	c.init()

	if f != nil {
		c.format = f
	}

	var released []*Module
	for n := c.head.next; n != &c.head; n = n.next {
		released = append(released, n.module)
		n.module.nodes = nil
		n.module.chain.Store(nil)
	}

	c.head.next = &c.head
	c.head.prev = &c.head

	for _, m := range modules {
		n := &node{prev: c.head.prev, next: &c.head, module: m}
		c.head.prev.next = n
		c.head.prev = n

		m.nodes = append(m.nodes, n)
		m.chain.Store(c)
	}

	c.publish()
	c.mu.Unlock()

	for _, m := range released {
		m.Release()
	}
}
