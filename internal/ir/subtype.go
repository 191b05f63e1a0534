package ir

// IsSubtype reports whether left can be used where right is expected.
// The primitive-op registry uses this when matching operand types against
// an op description's formals.
func IsSubtype(left, right RType) bool {
	if IsObjectRPrimitive(right) {
		return true
	}
	if opt, ok := right.(*ROptional); ok {
		if IsSubtype(left, NoneRPrimitive) || IsSubtype(left, opt.value) {
			return true
		}
	}
	switch l := left.(type) {
	case *RInstance:
		r, ok := right.(*RInstance)
		if !ok {
			return false
		}
		for _, cls := range l.class.MRO {
			if cls == r.class {
				return true
			}
		}
		return false
	case *ROptional:
		r, ok := right.(*ROptional)
		return ok && IsSubtype(l.value, r.value)
	case *RPrimitive:
		if IsBoolRPrimitive(l) && IsIntRPrimitive(right) {
			return true
		}
		if IsShortIntRPrimitive(l) && IsIntRPrimitive(right) {
			return true
		}
		r, ok := right.(*RPrimitive)
		return ok && l.name == r.name
	case *RTuple:
		if IsTupleRPrimitive(right) {
			return true
		}
		r, ok := right.(*RTuple)
		if !ok || len(l.types) != len(r.types) {
			return false
		}
		for i := range l.types {
			if !IsSubtype(l.types[i], r.types[i]) {
				return false
			}
		}
		return true
	case *RVoid:
		_, ok := right.(*RVoid)
		return ok
	}
	return false
}
