package filter

import "firestige.xyz/vlantag/internal/core"

// FilterChain runs frames through filters in order. Frames every filter
// passed on reach the handler.
type FilterChain struct {
	filters []Filter
	handler func(p *core.RawPacket)
	links   []link
}

// link is the rest of the chain as seen from filters[pos-1].
type link struct {
	c   *FilterChain
	pos int
}

func (l link) Filter(p *core.RawPacket) {
	if l.pos < len(l.c.filters) {
		l.c.filters[l.pos].Filter(p, l.c.links[l.pos+1])
		return
	}
	l.c.handler(p)
}

func NewFilterChain(handler func(p *core.RawPacket), filters []Filter) *FilterChain {
	c := &FilterChain{
		filters: append([]Filter(nil), filters...),
		handler: handler,
	}
	c.links = make([]link, len(c.filters)+1)
	for i := range c.links {
		c.links[i] = link{c: c, pos: i}
	}
	return c
}

func (c *FilterChain) GetFilters() []Filter {
	return c.filters
}

// Filter runs p through the whole chain.
func (c *FilterChain) Filter(p *core.RawPacket) {
	c.links[0].Filter(p)
}
