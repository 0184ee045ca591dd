package signature

import "testing"

func TestPrimitiveIDsDistinct(t *testing.T) {
	kinds := []Kind{
		KindBool, KindU8, KindU16, KindU32, KindU64,
		KindI8, KindI16, KindI32, KindI64,
		KindF32, KindF64, KindChar, KindUsize, KindUnit,
		KindOwn, KindOwnBuf, KindBorrow, KindBorrowBuf,
	}

	seen := make(map[TypeID]Kind, len(kinds))
	for _, k := range kinds {
		id := k.ID()
		if id == 0 {
			t.Errorf("kind %s has zero identity", k)
		}
		if prev, ok := seen[id]; ok {
			t.Errorf("kinds %s and %s share identity %#x", prev, k, id)
		}
		seen[id] = k
	}
}

func TestPrimitiveIDsStable(t *testing.T) {
	for _, k := range []Kind{KindU32, KindBool, KindOwnBuf} {
		if k.ID() != k.ID() {
			t.Errorf("identity of %s not stable across calls", k)
		}
	}
}

func TestPrimitiveIDDerivation(t *testing.T) {
	// The identity of a primitive kind is djb2 over eight zero bytes
	// followed by the kind name.
	h := NewHasher()
	h.WriteUint64(0)
	h.WriteString("u32")
	if got := KindU32.ID(); got != TypeID(h.Sum64()) {
		t.Errorf("u32 identity: got %#x, want %#x", got, h.Sum64())
	}
}

func TestOwnershipKindsDistinctFromIntegers(t *testing.T) {
	// Ownership-tagged types match Transport's bit width but carry different
	// semantics; their identities must not collide with the plain integers.
	for _, owned := range []Kind{KindOwn, KindOwnBuf, KindBorrow, KindBorrowBuf} {
		for _, plain := range []Kind{KindU64, KindUsize} {
			if owned.ID() == plain.ID() {
				t.Errorf("%s and %s share an identity", owned, plain)
			}
		}
	}
}

func TestKindPredicates(t *testing.T) {
	if !KindU8.IsPrimitive() || KindOwn.IsPrimitive() {
		t.Error("IsPrimitive misclassifies kinds")
	}
	if !KindOwn.Owning() || !KindOwnBuf.Owning() {
		t.Error("owning kinds not reported as owning")
	}
	if KindBorrow.Owning() || KindBorrowBuf.Owning() {
		t.Error("borrowing kinds reported as owning")
	}
}

func TestStructIdentity(t *testing.T) {
	t.Run("same fields same identity", func(t *testing.T) {
		a := Struct(Field{"x", KindU32.ID()}, Field{"y", KindU64.ID()})
		b := Struct(Field{"u", KindU32.ID()}, Field{"v", KindU64.ID()})
		if a != b {
			t.Error("identity must depend on field identity sequence, not field names")
		}
	})

	t.Run("field order changes identity", func(t *testing.T) {
		a := Struct(Field{"x", KindU32.ID()}, Field{"y", KindU64.ID()})
		b := Struct(Field{"y", KindU64.ID()}, Field{"x", KindU32.ID()})
		if a == b {
			t.Error("swapping fields must change the identity")
		}
	})

	t.Run("field type changes identity", func(t *testing.T) {
		a := Struct(Field{"x", KindU32.ID()})
		b := Struct(Field{"x", KindI32.ID()})
		if a == b {
			t.Error("changing a field type must change the identity")
		}
	})

	t.Run("nested composite", func(t *testing.T) {
		inner := Struct(Field{"a", KindU8.ID()})
		outer1 := Struct(Field{"inner", inner}, Field{"b", KindU64.ID()})
		outer2 := Struct(Field{"inner", inner}, Field{"b", KindU64.ID()})
		if outer1 != outer2 {
			t.Error("nested identity not stable")
		}
	})
}

func TestRegistry(t *testing.T) {
	t.Run("register and lookup", func(t *testing.T) {
		r := NewRegistry()
		id, err := r.Register("Point", Field{"x", KindI32.ID()}, Field{"y", KindI32.ID()})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		got, ok := r.Lookup("Point")
		if !ok || got != id {
			t.Errorf("lookup: got (%#x, %v), want (%#x, true)", got, ok, id)
		}
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		r := NewRegistry()
		if _, err := r.Register("Point", Field{"x", KindI32.ID()}); err != nil {
			t.Fatalf("first register: %v", err)
		}
		if _, err := r.Register("Point", Field{"x", KindI32.ID()}); err == nil {
			t.Error("second register should fail")
		}
	})

	t.Run("unregistered field type rejected", func(t *testing.T) {
		r := NewRegistry()
		if _, err := r.Register("Broken", Field{"x", 0}); err == nil {
			t.Error("zero field identity should be rejected")
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		r := NewRegistry()
		if _, err := r.Register(""); err == nil {
			t.Error("empty name should be rejected")
		}
	})
}
