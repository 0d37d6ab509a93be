package cpu

// cachedInstr is a pre-decoded instruction: handler, resolved effective
// address, byte size and cycle cost with the page-cross penalty folded in.
type cachedInstr struct {
	exec   func(*CPU, uint16)
	addr   uint16
	size   int
	cycles int
	gen    uint32
}

// cache pre-decodes instructions in the ROM half of the address space.
// Entries are filled lazily on first execution and a generation counter
// retires the whole table when the mapper switches a program bank.
type cache struct {
	entries []cachedInstr
	gen     uint32
}

const cacheBase = 0x8000

func (k *cache) invalidate() {
	k.gen++
}

func (k *cache) lookup(pc uint16) (*cachedInstr, bool) {
	if pc < cacheBase || k.entries == nil {
		return nil, false
	}
	e := &k.entries[pc-cacheBase]
	if e.exec == nil || e.gen != k.gen {
		return nil, false
	}
	return e, true
}

func (k *cache) store(pc uint16, e cachedInstr) {
	if pc < cacheBase {
		return
	}
	if k.entries == nil {
		k.entries = make([]cachedInstr, 0x8000)
	}
	e.gen = k.gen
	k.entries[pc-cacheBase] = e
}
