package sitemap

type blockSpec struct {
	size int
	num  int
}

// selectBlock returns chunk num of locs split into runs of size. The last
// chunk may be shorter.
func selectBlock(locs []LocationRecord, b blockSpec) ([]LocationRecord, error) {
	chunks := (len(locs) + b.size - 1) / b.size
	if b.num >= chunks {
		return nil, &ConfigError{Field: "block", Err: ErrBlockOutOfRange}
	}
	start := b.num * b.size
	end := min(start+b.size, len(locs))
	return locs[start:end], nil
}
