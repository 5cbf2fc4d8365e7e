package results

// Page is a read-only slice of a result set. It is derived on demand and
// never stored independently of the backing set.
type Page struct {
	Items      []Item
	Index      int
	Size       int
	TotalPages int
	TotalItems int
}

// Paginate slices items into fixed-size pages. The index is clamped into
// [1, TotalPages]: out-of-range requests degrade to the nearest valid page
// instead of erroring. Calling twice with identical inputs yields identical
// output.
func Paginate(items []Item, size, index int) Page {
	if size < 1 {
		size = 1
	}
	total := (len(items) + size - 1) / size
	if total < 1 {
		total = 1
	}
	if index < 1 {
		index = 1
	}
	if index > total {
		index = total
	}
	lo := (index - 1) * size
	hi := lo + size
	if lo > len(items) {
		lo = len(items)
	}
	if hi > len(items) {
		hi = len(items)
	}
	return Page{
		Items:      items[lo:hi],
		Index:      index,
		Size:       size,
		TotalPages: total,
		TotalItems: len(items),
	}
}
