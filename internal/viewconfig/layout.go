package viewconfig

// gridSize is the side length of the layout grid.
const gridSize = 12

// LayoutItem is either a View or a concatenation of items.
type LayoutItem interface {
	assign(x, y, w, h float64)
}

func (v *View) assign(x, y, w, h float64) {
	v.x = int(x)
	v.y = int(y)
	v.w = int(w)
	v.h = int(h)
}

type concat struct {
	horizontal bool
	children   []LayoutItem
}

func (c concat) assign(x, y, w, h float64) {
	n := float64(len(c.children))
	if n == 0 {
		return
	}
	if c.horizontal {
		each := w / n
		for i, child := range c.children {
			child.assign(x+float64(i)*each, y, each, h)
		}
	} else {
		each := h / n
		for i, child := range c.children {
			child.assign(x, y+float64(i)*each, w, each)
		}
	}
}

// HConcat places items side by side, splitting the width equally.
func HConcat(children ...LayoutItem) LayoutItem {
	return concat{horizontal: true, children: children}
}

// VConcat stacks items, splitting the height equally.
func VConcat(children ...LayoutItem) LayoutItem {
	return concat{children: children}
}

// Layout assigns grid coordinates to every view in the item tree over the
// full 12x12 grid.
func (c *Config) Layout(item LayoutItem) {
	item.assign(0, 0, gridSize, gridSize)
}
