package document

// Merge deep-merges src into dst and returns the result. Neither input is
// modified.
//
// Two objects merge key by key; keys only in dst keep their position and new
// keys from src are appended. Two arrays merge positionally (see
// mergeArrays). Any other pairing yields a copy of src.
func Merge(dst, src Value) Value {
	switch s := src.(type) {
	case *Object:
		if d, ok := dst.(*Object); ok {
			return mergeObjects(d, s)
		}
	case Array:
		if d, ok := dst.(Array); ok {
			return mergeArrays(d, s)
		}
	}
	return Clone(src)
}

// MergeAll folds fragments into base from left to right.
func MergeAll(base *Object, fragments ...*Object) *Object {
	out := Clone(base).(*Object)
	for _, f := range fragments {
		if f == nil {
			continue
		}
		out = Merge(out, f).(*Object)
	}
	return out
}

func mergeObjects(dst, src *Object) *Object {
	out := Clone(dst).(*Object)
	for _, k := range src.Keys() {
		sv, _ := src.Get(k)
		if dv, ok := out.Get(k); ok {
			out.Set(k, Merge(dv, sv))
			continue
		}
		out.Set(k, Clone(sv))
	}
	return out
}

// mergeArrays walks src by index. Where dst has no element at that index the
// item is appended. Where the item is an object or array it is merged into the
// element already there. Otherwise the item is appended unless an equal value
// is already present, so arrays grow as a union instead of being replaced.
func mergeArrays(dst, src Array) Array {
	out := Clone(dst).(Array)
	for i, item := range src {
		switch {
		case i >= len(out):
			out = append(out, Clone(item))
		case isMergeable(item):
			out[i] = Merge(out[i], item)
		case !Contains(out, item):
			out = append(out, Clone(item))
		}
	}
	return out
}

func isMergeable(v Value) bool {
	switch v.(type) {
	case *Object, Array:
		return true
	}
	return false
}
