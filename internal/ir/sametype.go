package ir

// IsSameType reports structural equality of two runtime types. The
// environment printer uses it to group registers and the primitive registry
// to detect duplicate signatures; the emitter deduplicates tuple struct
// declarations by struct name instead.
func IsSameType(a, b RType) bool {
	switch left := a.(type) {
	case *RPrimitive:
		right, ok := b.(*RPrimitive)
		return ok && left.name == right.name
	case *RTuple:
		right, ok := b.(*RTuple)
		if !ok || len(left.types) != len(right.types) {
			return false
		}
		for i := range left.types {
			if !IsSameType(left.types[i], right.types[i]) {
				return false
			}
		}
		return true
	case *RInstance:
		right, ok := b.(*RInstance)
		return ok && left.class == right.class
	case *ROptional:
		right, ok := b.(*ROptional)
		return ok && IsSameType(left.value, right.value)
	case *RVoid:
		_, ok := b.(*RVoid)
		return ok
	}
	return false
}
