package cart

// lines is the ordered cart collection. Operations return a new slice and
// never modify the receiver, so a snapshot handed to the persister stays stable.
type lines []Item

func (l lines) find(id string) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

func (l lines) clone() lines {
	if l == nil {
		return lines{}
	}
	out := make(lines, len(l))
	copy(out, l)
	return out
}

func (l lines) add(in ItemInput, quantity int) (lines, Change) {
	if quantity <= 0 {
		quantity = 1
	}
	id := in.ID()
	change := Change{ID: id, Requested: quantity}

	idx := l.find(id)
	if in.StockQuantity <= 0 {
		change.Clamped = true
		if idx >= 0 {
			change.Quantity = l[idx].Quantity
		}
		return l, change
	}

	if idx < 0 {
		qty := min(quantity, in.StockQuantity)
		change.Quantity = qty
		change.Clamped = qty < quantity
		change.Changed = true
		next := make(lines, len(l), len(l)+1)
		copy(next, l)
		return append(next, in.item(qty)), change
	}

	existing := l[idx]
	want := existing.Quantity + quantity
	qty := min(want, in.StockQuantity)
	change.Quantity = qty
	change.Clamped = qty < want
	change.Changed = qty != existing.Quantity || existing.StockQuantity != in.StockQuantity

	next := l.clone()
	next[idx].Quantity = qty
	next[idx].StockQuantity = in.StockQuantity
	return next, change
}

func (l lines) remove(id string) (lines, bool) {
	idx := l.find(id)
	if idx < 0 {
		return l, false
	}
	next := make(lines, 0, len(l)-1)
	next = append(next, l[:idx]...)
	next = append(next, l[idx+1:]...)
	return next, true
}

func (l lines) update(id string, quantity int) (lines, Change) {
	change := Change{ID: id, Requested: quantity}
	if quantity <= 0 {
		next, removed := l.remove(id)
		change.Changed = removed
		change.Removed = removed
		return next, change
	}

	idx := l.find(id)
	if idx < 0 {
		return l, change
	}
	existing := l[idx]
	qty := min(quantity, existing.StockQuantity)
	change.Quantity = qty
	change.Clamped = qty < quantity
	change.Changed = qty != existing.Quantity
	if !change.Changed {
		return l, change
	}
	next := l.clone()
	next[idx].Quantity = qty
	return next, change
}

// subtract takes each ordered quantity off its matching line and drops lines
// that reach zero. Lines and units not in ordered are kept.
func (l lines) subtract(ordered []Item) (lines, int) {
	next := l
	removed := 0
	for _, o := range ordered {
		idx := next.find(o.ID)
		if idx < 0 || o.Quantity <= 0 {
			continue
		}
		left := next[idx].Quantity - o.Quantity
		if left <= 0 {
			next, _ = next.remove(o.ID)
			removed++
			continue
		}
		next = next.clone()
		next[idx].Quantity = left
	}
	return next, removed
}

// sanitize repairs a persisted snapshot: ids are recomputed, later duplicates
// and out-of-stock lines are dropped, and quantities are clamped to stock.
func sanitize(items []Item) (lines, int) {
	out := make(lines, 0, len(items))
	dropped := 0
	for _, item := range items {
		item.ID = ItemID(item.ProductID, item.ColorID, item.SizeID)
		if item.Quantity < 1 || item.StockQuantity <= 0 || item.Price.IsNegative() || out.find(item.ID) >= 0 {
			dropped++
			continue
		}
		item.Quantity = min(item.Quantity, item.StockQuantity)
		out = append(out, item)
	}
	return out, dropped
}

func sameLines(a, b lines) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Quantity != b[i].Quantity {
			return false
		}
	}
	return true
}
